package commands

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sundayschool-dev/sundayschool/internal/cli/app"
	"github.com/sundayschool-dev/sundayschool/internal/models"
	"github.com/sundayschool-dev/sundayschool/internal/store"
)

// NewPostsCmd creates the posts command group
func NewPostsCmd(getApp AppFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "posts",
		Short: "Read and take part in the announcement feed",
	}

	list := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "Show the feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp()
			if err != nil {
				return err
			}
			return runPostsList(cmd.Context(), a, cmd.OutOrStdout())
		},
	}

	var post models.Post
	add := &cobra.Command{
		Use:   "add",
		Short: "Publish a post (admin only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp()
			if err != nil {
				return err
			}
			return runPostsAdd(cmd.Context(), a, post, cmd.OutOrStdout())
		},
	}
	add.Flags().StringVar(&post.Title, "title", "", "Post title")
	add.Flags().StringVar(&post.Content, "content", "", "Post body")
	add.Flags().StringVar(&post.Category, "category", "", "announcement, lesson, event or general")
	add.Flags().StringVar(&post.TargetAudience, "audience", "", "all, students, teachers or parents")
	add.Flags().StringSliceVar(&post.Tags, "tag", nil, "Tag (repeatable)")
	add.Flags().BoolVar(&post.IsPinned, "pin", false, "Pin the post to the top of the feed")
	_ = add.MarkFlagRequired("title")
	_ = add.MarkFlagRequired("content")

	like := &cobra.Command{
		Use:   "like <post-id>",
		Short: "Like a post, or take the like back",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp()
			if err != nil {
				return err
			}
			return runPostsLike(cmd.Context(), a, args[0], cmd.OutOrStdout())
		},
	}

	comment := &cobra.Command{
		Use:   "comment <post-id> <text>",
		Short: "Comment on a post",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp()
			if err != nil {
				return err
			}
			return runPostsComment(cmd.Context(), a, args[0], strings.Join(args[1:], " "), cmd.OutOrStdout())
		},
	}

	cmd.AddCommand(list, add, like, comment)
	return cmd
}

// loadFeed fetches the feed into a posts store
func loadFeed(ctx context.Context, a *app.App) (*store.Posts, error) {
	posts, err := a.API.ListPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load posts: %w", err)
	}

	feed := store.NewPosts()
	feed.Dispatch(store.LoadPosts{Posts: posts})
	return feed, nil
}

func findPost(posts []models.Post, id string) (models.Post, bool) {
	for _, p := range posts {
		if p.ID == id {
			return p, true
		}
	}
	return models.Post{}, false
}

func runPostsList(ctx context.Context, a *app.App, out io.Writer) error {
	if _, err := requireSession(ctx, a); err != nil {
		return err
	}

	feed, err := loadFeed(ctx, a)
	if err != nil {
		return err
	}

	if len(feed.State()) == 0 {
		fmt.Fprintln(out, "No posts yet.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tCATEGORY\tAUTHOR\tLIKES\tCOMMENTS")
	fmt.Fprintln(w, "──\t─────\t────────\t──────\t─────\t────────")
	for _, p := range feed.State() {
		title := p.Title
		if p.IsPinned {
			title = "📌 " + title
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\n", p.ID, title, p.Category, orDash(p.Author), len(p.Likes), len(p.Comments))
	}
	return w.Flush()
}

func runPostsAdd(ctx context.Context, a *app.App, post models.Post, out io.Writer) error {
	if err := requireAdmin(ctx, a, "/admin/posts"); err != nil {
		return err
	}

	created, err := a.API.CreatePost(ctx, post)
	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}

	fmt.Fprintf(out, "✓ Published %q (%s)\n", created.Title, created.ID)
	return nil
}

func runPostsLike(ctx context.Context, a *app.App, id string, out io.Writer) error {
	user, err := requireSession(ctx, a)
	if err != nil {
		return err
	}

	feed, err := loadFeed(ctx, a)
	if err != nil {
		return err
	}
	if _, ok := findPost(feed.State(), id); !ok {
		return fmt.Errorf("post %s not found", id)
	}

	stored, err := a.API.LikePost(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to like post: %w", err)
	}

	post, _ := findPost(feed.Dispatch(store.LikePost{PostID: id, UserID: user.ID}), id)
	if post.LikedBy(user.ID) != stored.LikedBy(user.ID) {
		// Someone else changed the post meanwhile; the backend wins
		a.Logger.Debug().Str("post_id", id).Msg("Feed out of date, reloading")
		if feed, err = loadFeed(ctx, a); err != nil {
			return err
		}
		post, _ = findPost(feed.State(), id)
	}

	if post.LikedBy(user.ID) {
		fmt.Fprintf(out, "✓ Liked %q (%d likes)\n", post.Title, len(post.Likes))
	} else {
		fmt.Fprintf(out, "✓ Removed your like from %q (%d likes)\n", post.Title, len(post.Likes))
	}
	return nil
}

func runPostsComment(ctx context.Context, a *app.App, id, text string, out io.Writer) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("comment text is required")
	}
	if _, err := requireSession(ctx, a); err != nil {
		return err
	}

	feed, err := loadFeed(ctx, a)
	if err != nil {
		return err
	}
	if _, ok := findPost(feed.State(), id); !ok {
		return fmt.Errorf("post %s not found", id)
	}

	stored, err := a.API.CommentPost(ctx, id, text)
	if err != nil {
		return fmt.Errorf("failed to add comment: %w", err)
	}
	if len(stored.Comments) == 0 {
		return fmt.Errorf("failed to add comment: backend returned no comments")
	}

	added := stored.Comments[len(stored.Comments)-1]
	post, _ := findPost(feed.Dispatch(store.AddComment{PostID: id, Comment: added}), id)

	fmt.Fprintf(out, "✓ Commented on %q (%d comments)\n", post.Title, len(post.Comments))
	return nil
}
