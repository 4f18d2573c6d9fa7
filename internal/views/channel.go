package views

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/pagination"
	"github.com/vidtube/backend/internal/repositories"
)

// ChannelStats aggregates a channel's videos, subscribers and likes received.
// Every field is zero when nothing matches.
type ChannelStats struct {
	TotalVideos      int64 `json:"totalVideos"`
	TotalViews       int64 `json:"totalViews"`
	TotalSubscribers int64 `json:"totalSubscribers"`
	TotalLikes       int64 `json:"totalLikes"`
}

// ChannelProfile is the public page of an account as seen by a viewer.
type ChannelProfile struct {
	ID                   string `json:"id"`
	Username             string `json:"username"`
	FullName             string `json:"fullName"`
	Email                string `json:"email"`
	Avatar               string `json:"avatar"`
	CoverImage           string `json:"coverImage"`
	SubscriberCount      int64  `json:"subscriberCount"`
	SubscribedToCount    int64  `json:"subscribedToCount"`
	IsSubscribedByViewer bool   `json:"isSubscribedByViewer"`
}

// ChannelStats counts channelID's videos and views, its subscribers, and the
// likes on videos it owns.
func (b *Builder) ChannelStats(ctx context.Context, channelID string) (ChannelStats, error) {
	const op = "views.ChannelStats"

	if _, err := b.Accounts.FindByID(ctx, channelID); err != nil {
		return ChannelStats{}, readError(op, "account", channelID, err)
	}

	var stats ChannelStats
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		videos, err := b.Videos.List(gctx, repositories.VideoFilter{OwnerID: channelID})
		if err != nil {
			return err
		}
		ids := make([]string, 0, len(videos))
		var views int64
		for _, v := range videos {
			ids = append(ids, v.ID)
			views += v.Views
		}
		likes, err := b.Likes.CountByTargets(gctx, models.LikeKindVideo, ids)
		if err != nil {
			return err
		}
		stats.TotalVideos = int64(len(videos))
		stats.TotalViews = views
		stats.TotalLikes = likes
		return nil
	})

	g.Go(func() error {
		n, err := b.Subscriptions.CountByChannel(gctx, channelID)
		if err != nil {
			return err
		}
		stats.TotalSubscribers = n
		return nil
	})

	if err := g.Wait(); err != nil {
		return ChannelStats{}, readError(op, "account", channelID, err)
	}
	return stats, nil
}

// ChannelProfile resolves username and reports its subscription counts and
// whether viewerID subscribes to it. An empty viewerID is never subscribed.
func (b *Builder) ChannelProfile(ctx context.Context, username, viewerID string) (ChannelProfile, error) {
	const op = "views.ChannelProfile"

	username = strings.ToLower(strings.TrimSpace(username))
	account, err := b.Accounts.FindByUsername(ctx, username)
	if err != nil {
		return ChannelProfile{}, readError(op, "account", username, err)
	}

	profile := ChannelProfile{
		ID:         account.ID,
		Username:   account.Username,
		FullName:   account.FullName,
		Email:      account.Email,
		Avatar:     account.Avatar,
		CoverImage: account.CoverImage,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := b.Subscriptions.CountByChannel(gctx, account.ID)
		profile.SubscriberCount = n
		return err
	})
	g.Go(func() error {
		n, err := b.Subscriptions.CountBySubscriber(gctx, account.ID)
		profile.SubscribedToCount = n
		return err
	})
	if viewerID != "" && viewerID != account.ID {
		g.Go(func() error {
			_, err := b.Subscriptions.Find(gctx, viewerID, account.ID)
			switch {
			case err == nil:
				profile.IsSubscribedByViewer = true
				return nil
			case errors.Is(err, repositories.ErrNotFound):
				return nil
			default:
				return err
			}
		})
	}

	if err := g.Wait(); err != nil {
		return ChannelProfile{}, readError(op, "account", username, err)
	}
	return profile, nil
}

// ChannelSubscribers lists the accounts subscribed to channelID, most recent first.
func (b *Builder) ChannelSubscribers(ctx context.Context, channelID string, params pagination.Params) (pagination.Page[OwnerSummary], error) {
	const op = "views.ChannelSubscribers"

	if _, err := b.Accounts.FindByID(ctx, channelID); err != nil {
		return pagination.Page[OwnerSummary]{}, readError(op, "account", channelID, err)
	}
	subs, err := b.Subscriptions.ListByChannel(ctx, channelID)
	if err != nil {
		return pagination.Page[OwnerSummary]{}, readError(op, "account", channelID, err)
	}

	ids := make([]string, 0, len(subs))
	for _, s := range subs {
		ids = append(ids, s.SubscriberID)
	}
	return b.summaries(ctx, op, channelID, ids, params)
}

// SubscribedChannels lists the channels subscriberID follows, most recent first.
func (b *Builder) SubscribedChannels(ctx context.Context, subscriberID string, params pagination.Params) (pagination.Page[OwnerSummary], error) {
	const op = "views.SubscribedChannels"

	if _, err := b.Accounts.FindByID(ctx, subscriberID); err != nil {
		return pagination.Page[OwnerSummary]{}, readError(op, "account", subscriberID, err)
	}
	subs, err := b.Subscriptions.ListBySubscriber(ctx, subscriberID)
	if err != nil {
		return pagination.Page[OwnerSummary]{}, readError(op, "account", subscriberID, err)
	}

	ids := make([]string, 0, len(subs))
	for _, s := range subs {
		ids = append(ids, s.ChannelID)
	}
	return b.summaries(ctx, op, subscriberID, ids, params)
}

func (b *Builder) summaries(ctx context.Context, op, id string, ids []string, params pagination.Params) (pagination.Page[OwnerSummary], error) {
	owners, err := b.owners(ctx, ids)
	if err != nil {
		return pagination.Page[OwnerSummary]{}, readError(op, "account", id, err)
	}
	out := make([]OwnerSummary, 0, len(ids))
	for _, id := range ids {
		out = append(out, owners[id])
	}
	return pagination.Paginate(out, params), nil
}
