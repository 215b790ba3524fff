package httpx

import (
	"context"
	"time"

	"github.com/dmitrijs2005/pinboard/internal/server/models"
)

type landingView struct {
	Authenticated bool   `json:"authenticated"`
	UserID        string `json:"user_id,omitempty"`
}

type userView struct {
	ID              string   `json:"id"`
	UserName        string   `json:"username"`
	DisplayName     string   `json:"display_name"`
	Email           string   `json:"email,omitempty"`
	Contact         string   `json:"contact,omitempty"`
	ProfileImageURL string   `json:"profile_image_url,omitempty"`
	PostIDs         []string `json:"post_ids"`
}

// ownerView is the public part of a user shown next to a feed post.
type ownerView struct {
	ID              string `json:"id"`
	UserName        string `json:"username"`
	DisplayName     string `json:"display_name"`
	ProfileImageURL string `json:"profile_image_url,omitempty"`
}

type postView struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type profileView struct {
	User  userView   `json:"user"`
	Posts []postView `json:"posts"`
}

type feedItemView struct {
	Post    postView   `json:"post"`
	Owner   *ownerView `json:"owner,omitempty"`
	IsOwner bool       `json:"is_owner"`
}

func (s *Server) userView(ctx context.Context, u *models.User) userView {
	ids := u.PostIDs
	if ids == nil {
		ids = []string{}
	}
	return userView{
		ID:              u.ID,
		UserName:        u.UserName,
		DisplayName:     u.DisplayName,
		Email:           u.Email,
		Contact:         u.Contact,
		ProfileImageURL: s.media.URL(ctx, u.ProfileImage),
		PostIDs:         ids,
	}
}

func (s *Server) postView(ctx context.Context, p *models.Post) postView {
	return postView{
		ID:          p.ID,
		OwnerID:     p.OwnerID,
		Title:       p.Title,
		Description: p.Description,
		ImageURL:    s.media.URL(ctx, p.ImageHandle),
		CreatedAt:   p.CreatedAt,
	}
}

func (s *Server) profileView(ctx context.Context, p *models.Profile) profileView {
	v := profileView{User: s.userView(ctx, p.User), Posts: make([]postView, 0, len(p.Posts))}
	for _, post := range p.Posts {
		v.Posts = append(v.Posts, s.postView(ctx, post))
	}
	return v
}

func (s *Server) feedView(ctx context.Context, items []*models.FeedItem) []feedItemView {
	out := make([]feedItemView, 0, len(items))
	for _, it := range items {
		v := feedItemView{Post: s.postView(ctx, it.Post), IsOwner: it.IsOwner}
		if it.Owner != nil {
			v.Owner = &ownerView{
				ID:              it.Owner.ID,
				UserName:        it.Owner.UserName,
				DisplayName:     it.Owner.DisplayName,
				ProfileImageURL: s.media.URL(ctx, it.Owner.ProfileImage),
			}
		}
		out = append(out, v)
	}
	return out
}
