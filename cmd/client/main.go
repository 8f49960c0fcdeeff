package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/common-nighthawk/go-figure"

	"github.com/jrsteele09/go-social-client/api"
	"github.com/jrsteele09/go-social-client/auth"
	"github.com/jrsteele09/go-social-client/blob/httpstore"
	"github.com/jrsteele09/go-social-client/feed"
	"github.com/jrsteele09/go-social-client/identity/firebase"
	"github.com/jrsteele09/go-social-client/internal/config"
	"github.com/jrsteele09/go-social-client/notify"
	"github.com/jrsteele09/go-social-client/posts"
	"github.com/jrsteele09/go-social-client/profile"
	"github.com/jrsteele09/go-social-client/session"
	"github.com/jrsteele09/go-social-client/session/repofile"
	"github.com/jrsteele09/go-social-client/users"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Error: %s\n", err)
	}
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	displayAppname(c.GetAppName())

	app, err := newApp(c)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return app.dispatch(ctx, os.Args[1:])
}

type app struct {
	config   config.Config
	sessions *session.Store
	gateway  *api.Gateway
	auth     *auth.Service
	feed     *feed.Controller
	composer *posts.Composer
	profiles *profile.Controller
	notifier *notify.Notifier
}

func newApp(c config.Config) (*app, error) {
	sessionRepo, err := repofile.New(c.GetDataFolder(), c.GetSessionCacheSecret())
	if err != nil {
		return nil, fmt.Errorf("repofile.New: %w", err)
	}
	sessions, err := session.NewStore(sessionRepo)
	if err != nil {
		return nil, fmt.Errorf("session.NewStore: %w", err)
	}

	notifier := notify.New()
	notifier.Subscribe(func(n notify.Notification) {
		if n.Level == notify.LevelError {
			fmt.Fprintf(os.Stderr, "%s\n", n.Message)
			return
		}
		fmt.Println(n.Message)
	})

	gateway := api.New(c.GetAPIBaseURL(), sessions.Token,
		api.WithUnauthorizedHook(func() {
			if err := sessions.Clear(); err != nil {
				log.Printf("failed to clear session: %s\n", err)
			}
			notifier.Error("Your session has expired. Please sign in again.")
		}))

	tokenCache, err := firebase.NewFileTokenCache(c.GetDataFolder())
	if err != nil {
		return nil, fmt.Errorf("firebase.NewFileTokenCache: %w", err)
	}
	provider, err := firebase.New(firebase.Settings{
		APIKey:           c.GetIdentityAPIKey(),
		AuthBaseURL:      c.GetIdentityAuthBaseURL(),
		TokenRefreshURL:  c.GetIdentityTokenRefreshURL(),
		OIDCIssuer:       c.GetOIDCIssuer(),
		OIDCClientID:     c.GetOIDCClientID(),
		OIDCClientSecret: c.GetOIDCClientSecret(),
		RedirectPort:     c.GetOIDCRedirectPort(),
	}, tokenCache)
	if err != nil {
		return nil, fmt.Errorf("firebase.New: %w", err)
	}

	authService, err := auth.New(auth.Deps{Provider: provider, Backend: gateway, Sessions: sessions})
	if err != nil {
		return nil, fmt.Errorf("auth.New: %w", err)
	}

	feedController, err := feed.NewController(gateway.Posts, c.GetFeedPageSize())
	if err != nil {
		return nil, fmt.Errorf("feed.NewController: %w", err)
	}

	composer, err := posts.NewComposer(gateway, feedController.RecordNewPost)
	if err != nil {
		return nil, fmt.Errorf("posts.NewComposer: %w", err)
	}

	blobs, err := httpstore.New(c.GetBlobBaseURL(), c.GetBlobBucket())
	if err != nil {
		return nil, fmt.Errorf("httpstore.New: %w", err)
	}
	profiles, err := profile.New(profile.Deps{Updater: authService, Blobs: blobs, Sessions: sessions},
		profile.WithAvatarLimits(c.GetMaxAvatarBytes(), c.GetMaxAvatarDimension()))
	if err != nil {
		return nil, fmt.Errorf("profile.New: %w", err)
	}

	return &app{
		config:   c,
		sessions: sessions,
		gateway:  gateway,
		auth:     authService,
		feed:     feedController,
		composer: composer,
		profiles: profiles,
		notifier: notifier,
	}, nil
}

func (a *app) dispatch(ctx context.Context, args []string) error {
	if len(args) == 0 {
		usage()
		return nil
	}

	command, rest := args[0], args[1:]
	switch command {
	case "signup":
		return a.signUp(ctx, rest)
	case "login":
		return a.signIn(ctx, rest)
	case "google-login":
		return a.signInFederated(ctx, rest)
	case "logout":
		a.auth.SignOut(ctx)
		a.notifier.Success("Signed out.")
		return nil
	case "whoami":
		return a.whoAmI(ctx)
	case "feed":
		return a.showFeed(ctx, rest)
	case "user-feed":
		return a.showUserFeed(ctx, rest)
	case "post":
		return a.createPost(ctx, rest)
	case "show":
		return a.showPost(ctx, rest)
	case "like":
		return a.likePost(ctx, rest)
	case "profile":
		return a.showProfile(ctx, rest)
	case "update-profile":
		return a.updateProfile(ctx, rest)
	case "upload-avatar":
		return a.uploadAvatar(ctx, rest)
	case "health":
		return a.health(ctx)
	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *app) signUp(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("signup", flag.ExitOnError)
	email := flags.String("email", "", "account email")
	password := flags.String("password", "", "account password")
	name := flags.String("name", "", "display name")
	bio := flags.String("bio", "", "profile bio")
	if err := flags.Parse(args); err != nil {
		return err
	}

	fields := users.ProfileUpdate{Name: name}
	if *bio != "" {
		fields.Bio = bio
	}
	signedUp, err := a.auth.SignUp(ctx, *email, *password, fields)
	if err != nil {
		return err
	}
	a.notifier.Success(fmt.Sprintf("Welcome, %s! Your account is ready.", signedUp.Name))
	return nil
}

func (a *app) signIn(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("login", flag.ExitOnError)
	email := flags.String("email", "", "account email")
	password := flags.String("password", "", "account password")
	if err := flags.Parse(args); err != nil {
		return err
	}

	signedIn, err := a.auth.SignIn(ctx, *email, *password)
	if err != nil {
		return err
	}
	a.notifier.Success(fmt.Sprintf("Signed in as %s.", signedIn.Name))
	return nil
}

func (a *app) signInFederated(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("google-login", flag.ExitOnError)
	name := flags.String("name", "", "display name used when registering a new profile")
	if err := flags.Parse(args); err != nil {
		return err
	}

	fallback := users.ProfileUpdate{}
	if *name != "" {
		fallback.Name = name
	}
	signedIn, err := a.auth.SignInFederated(ctx, fallback)
	if err != nil {
		return err
	}
	a.notifier.Success(fmt.Sprintf("Signed in as %s.", signedIn.Name))
	return nil
}

func (a *app) whoAmI(ctx context.Context) error {
	restored, err := a.auth.Restore(ctx)
	if err != nil {
		return err
	}
	if restored == nil {
		fmt.Println("Not signed in.")
		return nil
	}
	printProfile(restored)
	return nil
}

func (a *app) showFeed(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("feed", flag.ExitOnError)
	pages := flags.Int("pages", 1, "number of pages to load")
	if err := flags.Parse(args); err != nil {
		return err
	}

	if err := a.feed.LoadFirst(ctx); err != nil {
		return err
	}
	for page := 2; page <= *pages && a.feed.HasMore(); page++ {
		if err := a.feed.LoadMore(ctx); err != nil {
			return err
		}
	}
	printPosts(a.feed.Posts())
	if a.feed.HasMore() {
		fmt.Println("(more posts available)")
	}
	return nil
}

func (a *app) showUserFeed(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("user-feed", flag.ExitOnError)
	userID := flags.String("user", "", "user id")
	pages := flags.Int("pages", 1, "number of pages to load")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *userID == "" {
		return errors.New("user-feed requires -user")
	}

	fetch := func(ctx context.Context, page, limit int) ([]posts.Post, error) {
		return a.gateway.UserPosts(ctx, *userID, page, limit)
	}
	userFeed, err := feed.NewController(fetch, a.config.GetFeedPageSize())
	if err != nil {
		return err
	}
	if err := userFeed.LoadFirst(ctx); err != nil {
		return err
	}
	for page := 2; page <= *pages && userFeed.HasMore(); page++ {
		if err := userFeed.LoadMore(ctx); err != nil {
			return err
		}
	}
	printPosts(userFeed.Posts())
	return nil
}

func (a *app) createPost(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("post", flag.ExitOnError)
	content := flags.String("content", "", "post text")
	imageURL := flags.String("image", "", "optional image URL")
	if err := flags.Parse(args); err != nil {
		return err
	}

	a.composer.Draft.SetContent(*content)
	if *imageURL != "" {
		a.composer.Draft.AttachImage(*imageURL)
	}
	created, err := a.composer.Submit(ctx)
	if err != nil {
		return err
	}
	a.notifier.Success("Posted.")
	printPosts([]posts.Post{*created})
	return nil
}

func (a *app) showPost(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("show", flag.ExitOnError)
	postID := flags.String("post", "", "post id")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *postID == "" {
		return errors.New("show requires -post")
	}

	found, err := a.gateway.Post(ctx, *postID)
	if err != nil {
		return err
	}
	printPosts([]posts.Post{*found})
	return nil
}

func (a *app) likePost(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("like", flag.ExitOnError)
	postID := flags.String("post", "", "post id")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *postID == "" {
		return errors.New("like requires -post")
	}

	liked, err := a.gateway.LikePost(ctx, *postID)
	if err != nil {
		return err
	}
	a.feed.RecordLike(liked.ID, liked.LikesCount)
	a.notifier.Success(fmt.Sprintf("Post now has %d likes.", liked.LikesCount))
	return nil
}

func (a *app) showProfile(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("profile", flag.ExitOnError)
	userID := flags.String("user", "", "user id (defaults to the signed-in user)")
	if err := flags.Parse(args); err != nil {
		return err
	}

	var (
		viewed *users.Profile
		err    error
	)
	if *userID == "" {
		viewed, err = a.gateway.CurrentProfile(ctx)
	} else {
		viewed, err = a.gateway.User(ctx, *userID)
	}
	if err != nil {
		return err
	}
	printProfile(viewed)
	return nil
}

func (a *app) updateProfile(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("update-profile", flag.ExitOnError)
	name := flags.String("name", "", "new display name")
	bio := flags.String("bio", "", "new bio")
	if err := flags.Parse(args); err != nil {
		return err
	}

	update := users.ProfileUpdate{}
	if flagProvided(flags, "name") {
		update.Name = name
	}
	if flagProvided(flags, "bio") {
		update.Bio = bio
	}
	updated, err := a.profiles.Update(ctx, update)
	if err != nil {
		return err
	}
	a.notifier.Success("Profile updated.")
	printProfile(updated)
	return nil
}

func (a *app) uploadAvatar(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("upload-avatar", flag.ExitOnError)
	file := flags.String("file", "", "path to the image file")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return errors.New("upload-avatar requires -file")
	}

	image, err := os.Open(*file)
	if err != nil {
		return err
	}
	defer image.Close()

	updated, err := a.profiles.UploadAvatar(ctx, image)
	if err != nil {
		return err
	}
	a.notifier.Success(fmt.Sprintf("Avatar updated: %s", updated.AvatarURL))
	return nil
}

func (a *app) health(ctx context.Context) error {
	status, err := a.gateway.Health(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Backend status: %s\n", status)
	return nil
}

func flagProvided(flags *flag.FlagSet, name string) bool {
	provided := false
	flags.Visit(func(f *flag.Flag) {
		if f.Name == name {
			provided = true
		}
	})
	return provided
}

func printProfile(p *users.Profile) {
	fmt.Printf("%s (%s)\n", p.Name, p.ID)
	if p.Email != "" {
		fmt.Printf("  email: %s\n", p.Email)
	}
	if p.Bio != "" {
		fmt.Printf("  bio:   %s\n", p.Bio)
	}
	if p.AvatarURL != "" {
		fmt.Printf("  photo: %s\n", p.AvatarURL)
	}
}

func printPosts(list []posts.Post) {
	if len(list) == 0 {
		fmt.Println("No posts.")
		return
	}
	writePosts(os.Stdout, list)
}

func writePosts(w io.Writer, list []posts.Post) {
	for _, p := range list {
		fmt.Fprintf(w, "%s  %s\n", p.ID, p.UserName)
		for _, line := range strings.Split(p.Content, "\n") {
			fmt.Fprintf(w, "    %s\n", line)
		}
		if p.ImageURL != nil {
			fmt.Fprintf(w, "    image: %s\n", *p.ImageURL)
		}
		fmt.Fprintf(w, "    likes: %d\n\n", p.LikesCount)
	}
}

func usage() {
	fmt.Println(`Commands:
  signup         -email -password -name [-bio]
  login          -email -password
  google-login   [-name]
  logout
  whoami
  feed           [-pages N]
  user-feed      -user ID [-pages N]
  post           -content TEXT [-image URL]
  show           -post ID
  like           -post ID
  profile        [-user ID]
  update-profile [-name] [-bio]
  upload-avatar  -file PATH
  health`)
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
