package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cppla/miniblog/blog"
	"github.com/cppla/miniblog/models"
	"github.com/cppla/miniblog/views"
)

func fileUpload(path string) *blog.Upload {
	if path == "" {
		return nil
	}
	return &blog.Upload{Name: filepath.Base(path), Open: func() (io.ReadCloser, error) {
		return os.Open(path)
	}}
}

func printPosts(w io.Writer, posts []models.Post) {
	if len(posts) == 0 {
		fmt.Fprintln(w, "No posts yet.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tAUTHOR\tTITLE\tLIKES\tCOMMENTS\tCREATED")
	for _, p := range posts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
			p.ID, p.AuthorUsername, p.Title, p.Likes, len(p.Comments), p.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	tw.Flush()
}

func printPost(w io.Writer, p *models.Post) {
	fmt.Fprintf(w, "%s\nby %s on %s", p.Title, p.AuthorUsername, p.CreatedAt.Local().Format("2006-01-02 15:04"))
	if p.UpdatedAt != nil {
		fmt.Fprintf(w, " (edited %s)", p.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	fmt.Fprintf(w, "\n\n%s\n\n", p.Content)
	if p.Image != "" {
		fmt.Fprintln(w, "[image attached]")
	}
	if p.Video != "" {
		fmt.Fprintln(w, "[video attached]")
	}
	fmt.Fprintf(w, "%d likes, %d comments\n", p.Likes, len(p.Comments))
	for _, c := range p.Comments {
		fmt.Fprintf(w, "  - [%s] %s: %s\n", c.ID, c.AuthorUsername, c.Text)
	}
}

func newPostCmd(s *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "post",
		Short: "Post management commands",
		Long:  "Create, view, like, comment on and manage posts",
	}
	cmd.AddCommand(
		newPostListCmd(s),
		newPostShowCmd(s),
		newPostCreateCmd(s),
		newPostEditCmd(s),
		newPostDeleteCmd(s),
		newPostLikeCmd(s),
		newPostCommentCmd(s),
		newPostDeleteCommentCmd(s),
		newPostClearCmd(s),
	)
	return cmd
}

func newPostListCmd(s *state) *cobra.Command {
	var search string
	var mine bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List posts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var posts []models.Post
			var err error
			if mine {
				posts, err = s.app.MyPosts(s.ctx(cmd), s.sid)
				posts = views.Filter(posts, search)
			} else {
				posts, err = s.app.Search(s.ctx(cmd), search)
			}
			if err != nil {
				return err
			}
			return s.print(posts, func(w io.Writer) { printPosts(w, posts) })
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "Only posts whose title or content contains this text")
	cmd.Flags().BoolVar(&mine, "mine", false, "Only posts written by the logged-in user")
	return cmd
}

func newPostShowCmd(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "show <post-id>",
		Short: "Show a post with its comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			post, err := s.app.Post(s.ctx(cmd), args[0])
			if err != nil {
				return err
			}
			return s.print(post, func(w io.Writer) { printPost(w, post) })
		},
	}
}

func newPostCreateCmd(s *state) *cobra.Command {
	var title, content, image, video string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Publish a post",
		Long:  "Publish a post. Title and content fall back to the saved draft.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := s.ctx(cmd)
			if draft := s.app.Draft(ctx, s.sid); draft != nil {
				if title == "" {
					title = draft.Title
				}
				if content == "" {
					content = draft.Content
				}
			}
			media, err := blog.EncodeMedia(ctx, fileUpload(image), fileUpload(video), s.app.MaxMediaBytes())
			if err != nil {
				return err
			}
			post, err := s.app.CreatePost(ctx, s.sid, blog.PostInput{Title: title, Content: content, Media: media})
			if err != nil {
				return err
			}
			fmt.Fprintf(s.out, "Post %s published\n", post.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "Post title")
	cmd.Flags().StringVarP(&content, "content", "c", "", "Post content")
	cmd.Flags().StringVar(&image, "image", "", "Path of an image to attach")
	cmd.Flags().StringVar(&video, "video", "", "Path of a video to attach")
	return cmd
}

func newPostEditCmd(s *state) *cobra.Command {
	var edit blog.PostEdit
	var image, video string
	cmd := &cobra.Command{
		Use:   "edit <post-id>",
		Short: "Edit one of your posts",
		Long:  "Edit one of your posts. Unset flags keep the current title and content.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := s.ctx(cmd)
			if err := s.app.MarkForEdit(ctx, s.sid, args[0]); err != nil {
				return err
			}
			post, err := s.app.EditTarget(ctx, s.sid)
			if err != nil {
				return err
			}
			if post == nil {
				return blog.ErrPostNotFound
			}
			if !cmd.Flags().Changed("title") {
				edit.Title = post.Title
			}
			if !cmd.Flags().Changed("content") {
				edit.Content = post.Content
			}
			if edit.Media, err = blog.EncodeMedia(ctx, fileUpload(image), fileUpload(video), s.app.MaxMediaBytes()); err != nil {
				return err
			}
			if _, err := s.app.EditPost(ctx, s.sid, args[0], edit); err != nil {
				return err
			}
			fmt.Fprintf(s.out, "Post %s updated\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVarP(&edit.Title, "title", "t", "", "New title")
	cmd.Flags().StringVarP(&edit.Content, "content", "c", "", "New content")
	cmd.Flags().StringVar(&image, "image", "", "Replace the image with this file")
	cmd.Flags().StringVar(&video, "video", "", "Replace the video with this file")
	cmd.Flags().BoolVar(&edit.RemoveImage, "remove-image", false, "Remove the attached image")
	cmd.Flags().BoolVar(&edit.RemoveVideo, "remove-video", false, "Remove the attached video")
	return cmd
}

func newPostDeleteCmd(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <post-id>",
		Short: "Delete one of your posts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := s.app.DeletePost(s.ctx(cmd), s.sid, args[0], s.confirm()); err != nil {
				return err
			}
			fmt.Fprintln(s.out, "Post deleted")
			return nil
		},
	}
}

func newPostLikeCmd(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "like <post-id>",
		Short: "Like a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			likes, err := s.app.LikePost(s.ctx(cmd), s.sid, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(s.out, "%d likes\n", likes)
			return nil
		},
	}
}

func newPostCommentCmd(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "comment <post-id> <text>...",
		Short: "Comment on a post",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := s.app.AddComment(s.ctx(cmd), s.sid, args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			fmt.Fprintf(s.out, "Comment %s added\n", c.ID)
			return nil
		},
	}
}

func newPostDeleteCommentCmd(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-comment <post-id> <comment-id>",
		Short: "Delete a comment you wrote or one on your post",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := s.app.DeleteComment(s.ctx(cmd), s.sid, args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintln(s.out, "Comment deleted")
			return nil
		},
	}
}

func newPostClearCmd(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every post",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := s.app.ClearAllPosts(s.ctx(cmd), s.sid, s.confirm()); err != nil {
				return err
			}
			fmt.Fprintln(s.out, "All posts deleted")
			return nil
		},
	}
}

// newRenderCmd writes the full index page the server would show this context.
func newRenderCmd(s *state) *cobra.Command {
	var search, outPath string
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the post list as an HTML page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := s.ctx(cmd)
			posts, err := s.app.Posts(ctx)
			if err != nil {
				return err
			}
			sess := s.app.Current(ctx, s.sid)
			page := views.Page{
				Theme:  s.app.Theme(ctx, s.sid),
				Viewer: sess,
				Search: search,
				Remote: s.app.Remote(),
				Unread: s.app.UnreadCount(ctx, s.sid),
			}
			page.SetPosts(posts)
			if sess != nil {
				page.Draft = s.app.Draft(ctx, s.sid)
				page.CanClear = s.app.CanClear(sess.Username)
			}
			renderer, err := views.NewRenderer()
			if err != nil {
				return err
			}
			w := s.out
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			return renderer.Render(w, page)
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "Only posts whose title or content contains this text")
	cmd.Flags().StringVar(&outPath, "out", "", "Write the page to this file instead of stdout")
	return cmd
}
