package repositories

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/vidtube/backend/internal/models"
)

// MemoryStore keeps every collection in process memory behind one lock. It
// enforces the same uniqueness, check and foreign key rules as the SQL schema
// so services behave identically against it. Intended for tests and local
// development.
type MemoryStore struct {
	mu            sync.RWMutex
	accounts      map[string]models.Account
	videos        map[string]models.Video
	comments      map[string]models.Comment
	tweets        map[string]models.Tweet
	likes         map[string]models.Like
	subscriptions map[string]models.Subscription
	playlists     map[string]models.Playlist
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts:      make(map[string]models.Account),
		videos:        make(map[string]models.Video),
		comments:      make(map[string]models.Comment),
		tweets:        make(map[string]models.Tweet),
		likes:         make(map[string]models.Like),
		subscriptions: make(map[string]models.Subscription),
		playlists:     make(map[string]models.Playlist),
	}
}

// Accounts returns the account repository view of the store.
func (s *MemoryStore) Accounts() AccountRepository { return memoryAccounts{s} }

// Videos returns the video repository view of the store.
func (s *MemoryStore) Videos() VideoRepository { return memoryVideos{s} }

// Comments returns the comment repository view of the store.
func (s *MemoryStore) Comments() CommentRepository { return memoryComments{s} }

// Tweets returns the tweet repository view of the store.
func (s *MemoryStore) Tweets() TweetRepository { return memoryTweets{s} }

// Likes returns the like repository view of the store.
func (s *MemoryStore) Likes() LikeRepository { return memoryLikes{s} }

// Subscriptions returns the subscription repository view of the store.
func (s *MemoryStore) Subscriptions() SubscriptionRepository { return memorySubscriptions{s} }

// Playlists returns the playlist repository view of the store.
func (s *MemoryStore) Playlists() PlaylistRepository { return memoryPlaylists{s} }

func newestFirst[T any](items []T, created func(T) time.Time) {
	sort.SliceStable(items, func(i, j int) bool { return created(items[i]).After(created(items[j])) })
}

type memoryAccounts struct{ s *MemoryStore }

func copyAccount(a models.Account) models.Account {
	a.WatchHistory = append([]string{}, a.WatchHistory...)
	if a.RefreshToken != nil {
		token := *a.RefreshToken
		a.RefreshToken = &token
	}
	return a
}

func (m memoryAccounts) Create(_ context.Context, account models.Account) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	for _, existing := range m.s.accounts {
		if existing.ID == account.ID || existing.Username == account.Username || existing.Email == account.Email {
			return ErrConflict
		}
	}
	m.s.accounts[account.ID] = copyAccount(account)
	return nil
}

func (m memoryAccounts) FindByID(_ context.Context, id string) (models.Account, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	account, ok := m.s.accounts[id]
	if !ok {
		return models.Account{}, ErrNotFound
	}
	return copyAccount(account), nil
}

func (m memoryAccounts) FindByUsername(_ context.Context, username string) (models.Account, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	for _, account := range m.s.accounts {
		if account.Username == username {
			return copyAccount(account), nil
		}
	}
	return models.Account{}, ErrNotFound
}

func (m memoryAccounts) FindByIDs(_ context.Context, ids []string) ([]models.Account, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	var out []models.Account
	for _, id := range ids {
		if account, ok := m.s.accounts[id]; ok {
			out = append(out, copyAccount(account))
		}
	}
	return out, nil
}

func (m memoryAccounts) Update(_ context.Context, account models.Account) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	stored, ok := m.s.accounts[account.ID]
	if !ok {
		return ErrNotFound
	}
	for id, existing := range m.s.accounts {
		if id != account.ID && existing.Email == account.Email {
			return ErrConflict
		}
	}
	stored.Email = account.Email
	stored.FullName = account.FullName
	stored.PasswordHash = account.PasswordHash
	stored.Avatar = account.Avatar
	stored.CoverImage = account.CoverImage
	stored.UpdatedAt = account.UpdatedAt
	m.s.accounts[account.ID] = stored
	return nil
}

func (m memoryAccounts) RecordWatch(_ context.Context, accountID, videoID string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	account, ok := m.s.accounts[accountID]
	if !ok {
		return ErrNotFound
	}
	if _, ok := m.s.videos[videoID]; !ok {
		return ErrNotFound
	}
	history := []string{videoID}
	for _, id := range account.WatchHistory {
		if id != videoID {
			history = append(history, id)
		}
	}
	account.WatchHistory = history
	account.UpdatedAt = time.Now().UTC()
	m.s.accounts[accountID] = account
	return nil
}

func (m memoryAccounts) RemoveFromWatchHistories(_ context.Context, videoID string) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	var touched int64
	for id, account := range m.s.accounts {
		if !slices.Contains(account.WatchHistory, videoID) {
			continue
		}
		account.WatchHistory = slices.DeleteFunc(append([]string{}, account.WatchHistory...), func(v string) bool { return v == videoID })
		m.s.accounts[id] = account
		touched++
	}
	return touched, nil
}

func (m memoryAccounts) Delete(_ context.Context, id string) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if _, ok := m.s.accounts[id]; !ok {
		return false, nil
	}
	if m.s.accountReferencedLocked(id) {
		return false, fmt.Errorf("delete account: %w", ErrReferenced)
	}
	delete(m.s.accounts, id)
	return true, nil
}

func (s *MemoryStore) accountReferencedLocked(id string) bool {
	for _, v := range s.videos {
		if v.OwnerID == id {
			return true
		}
	}
	for _, c := range s.comments {
		if c.OwnerID == id {
			return true
		}
	}
	for _, t := range s.tweets {
		if t.OwnerID == id {
			return true
		}
	}
	for _, p := range s.playlists {
		if p.OwnerID == id {
			return true
		}
	}
	for _, l := range s.likes {
		if l.LikedBy == id {
			return true
		}
	}
	for _, sub := range s.subscriptions {
		if sub.SubscriberID == id || sub.ChannelID == id {
			return true
		}
	}
	return false
}

type memoryVideos struct{ s *MemoryStore }

func (m memoryVideos) Create(_ context.Context, video models.Video) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if _, ok := m.s.videos[video.ID]; ok {
		return ErrConflict
	}
	if _, ok := m.s.accounts[video.OwnerID]; !ok {
		return ErrNotFound
	}
	m.s.videos[video.ID] = video
	return nil
}

func (m memoryVideos) FindByID(_ context.Context, id string) (models.Video, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	video, ok := m.s.videos[id]
	if !ok {
		return models.Video{}, ErrNotFound
	}
	return video, nil
}

func (m memoryVideos) FindByIDs(_ context.Context, ids []string) ([]models.Video, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	var out []models.Video
	for _, id := range ids {
		if video, ok := m.s.videos[id]; ok {
			out = append(out, video)
		}
	}
	return out, nil
}

func (m memoryVideos) List(_ context.Context, filter VideoFilter) ([]models.Video, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	var out []models.Video
	for _, video := range m.s.videos {
		if filter.OwnerID != "" && video.OwnerID != filter.OwnerID {
			continue
		}
		out = append(out, video)
	}
	newestFirst(out, func(v models.Video) time.Time { return v.CreatedAt })
	return out, nil
}

func (m memoryVideos) Update(_ context.Context, video models.Video) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	stored, ok := m.s.videos[video.ID]
	if !ok {
		return ErrNotFound
	}
	stored.Title = video.Title
	stored.Description = video.Description
	stored.Thumbnail = video.Thumbnail
	stored.IsPublished = video.IsPublished
	stored.UpdatedAt = video.UpdatedAt
	m.s.videos[video.ID] = stored
	return nil
}

func (m memoryVideos) IncrementViews(_ context.Context, id string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	video, ok := m.s.videos[id]
	if !ok {
		return ErrNotFound
	}
	video.Views++
	m.s.videos[id] = video
	return nil
}

func (m memoryVideos) Delete(_ context.Context, id string) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if _, ok := m.s.videos[id]; !ok {
		return false, nil
	}
	for _, c := range m.s.comments {
		if c.VideoID == id {
			return false, fmt.Errorf("delete video: %w", ErrReferenced)
		}
	}
	delete(m.s.videos, id)
	return true, nil
}

type memoryComments struct{ s *MemoryStore }

func (m memoryComments) Create(_ context.Context, comment models.Comment) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if _, ok := m.s.comments[comment.ID]; ok {
		return ErrConflict
	}
	if _, ok := m.s.accounts[comment.OwnerID]; !ok {
		return ErrNotFound
	}
	if _, ok := m.s.videos[comment.VideoID]; !ok {
		return ErrNotFound
	}
	m.s.comments[comment.ID] = comment
	return nil
}

func (m memoryComments) FindByID(_ context.Context, id string) (models.Comment, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	comment, ok := m.s.comments[id]
	if !ok {
		return models.Comment{}, ErrNotFound
	}
	return comment, nil
}

func (m memoryComments) ListByVideo(_ context.Context, videoID string) ([]models.Comment, error) {
	return m.list(func(c models.Comment) bool { return c.VideoID == videoID }), nil
}

func (m memoryComments) ListByOwner(_ context.Context, ownerID string) ([]models.Comment, error) {
	return m.list(func(c models.Comment) bool { return c.OwnerID == ownerID }), nil
}

func (m memoryComments) list(match func(models.Comment) bool) []models.Comment {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	var out []models.Comment
	for _, comment := range m.s.comments {
		if match(comment) {
			out = append(out, comment)
		}
	}
	newestFirst(out, func(c models.Comment) time.Time { return c.CreatedAt })
	return out
}

func (m memoryComments) UpdateContent(_ context.Context, id, content string, updatedAt time.Time) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	comment, ok := m.s.comments[id]
	if !ok {
		return ErrNotFound
	}
	comment.Content = content
	comment.UpdatedAt = updatedAt
	m.s.comments[id] = comment
	return nil
}

func (m memoryComments) Delete(_ context.Context, id string) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if _, ok := m.s.comments[id]; !ok {
		return false, nil
	}
	delete(m.s.comments, id)
	return true, nil
}

func (m memoryComments) DeleteByVideo(_ context.Context, videoID string) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	var n int64
	for id, comment := range m.s.comments {
		if comment.VideoID == videoID {
			delete(m.s.comments, id)
			n++
		}
	}
	return n, nil
}

func (m memoryComments) DeleteByOwner(_ context.Context, ownerID string) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	var n int64
	for id, comment := range m.s.comments {
		if comment.OwnerID == ownerID {
			delete(m.s.comments, id)
			n++
		}
	}
	return n, nil
}

type memoryTweets struct{ s *MemoryStore }

func (m memoryTweets) Create(_ context.Context, tweet models.Tweet) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if _, ok := m.s.tweets[tweet.ID]; ok {
		return ErrConflict
	}
	if _, ok := m.s.accounts[tweet.OwnerID]; !ok {
		return ErrNotFound
	}
	m.s.tweets[tweet.ID] = tweet
	return nil
}

func (m memoryTweets) FindByID(_ context.Context, id string) (models.Tweet, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	tweet, ok := m.s.tweets[id]
	if !ok {
		return models.Tweet{}, ErrNotFound
	}
	return tweet, nil
}

func (m memoryTweets) ListByOwner(_ context.Context, ownerID string) ([]models.Tweet, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	var out []models.Tweet
	for _, tweet := range m.s.tweets {
		if tweet.OwnerID == ownerID {
			out = append(out, tweet)
		}
	}
	newestFirst(out, func(t models.Tweet) time.Time { return t.CreatedAt })
	return out, nil
}

func (m memoryTweets) UpdateContent(_ context.Context, id, content string, updatedAt time.Time) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	tweet, ok := m.s.tweets[id]
	if !ok {
		return ErrNotFound
	}
	tweet.Content = content
	tweet.UpdatedAt = updatedAt
	m.s.tweets[id] = tweet
	return nil
}

func (m memoryTweets) Delete(_ context.Context, id string) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if _, ok := m.s.tweets[id]; !ok {
		return false, nil
	}
	delete(m.s.tweets, id)
	return true, nil
}

func (m memoryTweets) DeleteByOwner(_ context.Context, ownerID string) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	var n int64
	for id, tweet := range m.s.tweets {
		if tweet.OwnerID == ownerID {
			delete(m.s.tweets, id)
			n++
		}
	}
	return n, nil
}

type memoryLikes struct{ s *MemoryStore }

func (m memoryLikes) Find(_ context.Context, likedBy string, target models.LikeTarget) (models.Like, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	for _, like := range m.s.likes {
		if like.LikedBy == likedBy && like.Target == target {
			return like, nil
		}
	}
	return models.Like{}, ErrNotFound
}

func (m memoryLikes) Create(_ context.Context, like models.Like) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if !like.Target.Kind.Valid() {
		return ErrConstraint
	}
	if _, ok := m.s.accounts[like.LikedBy]; !ok {
		return ErrNotFound
	}
	if !m.s.targetExistsLocked(like.Target) {
		return ErrNotFound
	}
	for _, existing := range m.s.likes {
		if existing.ID == like.ID || (existing.LikedBy == like.LikedBy && existing.Target == like.Target) {
			return ErrConflict
		}
	}
	m.s.likes[like.ID] = like
	return nil
}

func (s *MemoryStore) targetExistsLocked(target models.LikeTarget) bool {
	var ok bool
	switch target.Kind {
	case models.LikeKindVideo:
		_, ok = s.videos[target.ID]
	case models.LikeKindComment:
		_, ok = s.comments[target.ID]
	case models.LikeKindTweet:
		_, ok = s.tweets[target.ID]
	}
	return ok
}

func (m memoryLikes) Delete(_ context.Context, id string) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if _, ok := m.s.likes[id]; !ok {
		return false, nil
	}
	delete(m.s.likes, id)
	return true, nil
}

func (m memoryLikes) deleteWhere(match func(models.Like) bool) int64 {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	var n int64
	for id, like := range m.s.likes {
		if match(like) {
			delete(m.s.likes, id)
			n++
		}
	}
	return n
}

func (m memoryLikes) DeleteByTarget(_ context.Context, target models.LikeTarget) (int64, error) {
	return m.deleteWhere(func(l models.Like) bool { return l.Target == target }), nil
}

func (m memoryLikes) DeleteByTargets(_ context.Context, kind models.LikeKind, ids []string) (int64, error) {
	return m.deleteWhere(func(l models.Like) bool { return l.Target.Kind == kind && slices.Contains(ids, l.Target.ID) }), nil
}

func (m memoryLikes) DeleteByLiker(_ context.Context, likedBy string) (int64, error) {
	return m.deleteWhere(func(l models.Like) bool { return l.LikedBy == likedBy }), nil
}

func (m memoryLikes) CountByTargets(_ context.Context, kind models.LikeKind, ids []string) (int64, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	var n int64
	for _, like := range m.s.likes {
		if like.Target.Kind == kind && slices.Contains(ids, like.Target.ID) {
			n++
		}
	}
	return n, nil
}

func (m memoryLikes) ListByLiker(_ context.Context, likedBy string, kind models.LikeKind) ([]models.Like, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	var out []models.Like
	for _, like := range m.s.likes {
		if like.LikedBy == likedBy && like.Target.Kind == kind {
			out = append(out, like)
		}
	}
	newestFirst(out, func(l models.Like) time.Time { return l.CreatedAt })
	return out, nil
}

type memorySubscriptions struct{ s *MemoryStore }

func (m memorySubscriptions) Find(_ context.Context, subscriberID, channelID string) (models.Subscription, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	for _, sub := range m.s.subscriptions {
		if sub.SubscriberID == subscriberID && sub.ChannelID == channelID {
			return sub, nil
		}
	}
	return models.Subscription{}, ErrNotFound
}

func (m memorySubscriptions) Create(_ context.Context, subscription models.Subscription) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if subscription.SubscriberID == subscription.ChannelID {
		return ErrConstraint
	}
	if _, ok := m.s.accounts[subscription.SubscriberID]; !ok {
		return ErrNotFound
	}
	if _, ok := m.s.accounts[subscription.ChannelID]; !ok {
		return ErrNotFound
	}
	for _, existing := range m.s.subscriptions {
		if existing.ID == subscription.ID ||
			(existing.SubscriberID == subscription.SubscriberID && existing.ChannelID == subscription.ChannelID) {
			return ErrConflict
		}
	}
	m.s.subscriptions[subscription.ID] = subscription
	return nil
}

func (m memorySubscriptions) Delete(_ context.Context, id string) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if _, ok := m.s.subscriptions[id]; !ok {
		return false, nil
	}
	delete(m.s.subscriptions, id)
	return true, nil
}

func (m memorySubscriptions) list(match func(models.Subscription) bool) []models.Subscription {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	var out []models.Subscription
	for _, sub := range m.s.subscriptions {
		if match(sub) {
			out = append(out, sub)
		}
	}
	newestFirst(out, func(s models.Subscription) time.Time { return s.CreatedAt })
	return out
}

func (m memorySubscriptions) CountByChannel(_ context.Context, channelID string) (int64, error) {
	return int64(len(m.list(func(s models.Subscription) bool { return s.ChannelID == channelID }))), nil
}

func (m memorySubscriptions) CountBySubscriber(_ context.Context, subscriberID string) (int64, error) {
	return int64(len(m.list(func(s models.Subscription) bool { return s.SubscriberID == subscriberID }))), nil
}

func (m memorySubscriptions) ListByChannel(_ context.Context, channelID string) ([]models.Subscription, error) {
	return m.list(func(s models.Subscription) bool { return s.ChannelID == channelID }), nil
}

func (m memorySubscriptions) ListBySubscriber(_ context.Context, subscriberID string) ([]models.Subscription, error) {
	return m.list(func(s models.Subscription) bool { return s.SubscriberID == subscriberID }), nil
}

func (m memorySubscriptions) DeleteByAccount(_ context.Context, accountID string) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	var n int64
	for id, sub := range m.s.subscriptions {
		if sub.SubscriberID == accountID || sub.ChannelID == accountID {
			delete(m.s.subscriptions, id)
			n++
		}
	}
	return n, nil
}

type memoryPlaylists struct{ s *MemoryStore }

func copyPlaylist(p models.Playlist) models.Playlist {
	p.Videos = append([]string{}, p.Videos...)
	return p
}

func (m memoryPlaylists) Create(_ context.Context, playlist models.Playlist) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if _, ok := m.s.playlists[playlist.ID]; ok {
		return ErrConflict
	}
	if _, ok := m.s.accounts[playlist.OwnerID]; !ok {
		return ErrNotFound
	}
	m.s.playlists[playlist.ID] = copyPlaylist(playlist)
	return nil
}

func (m memoryPlaylists) FindByID(_ context.Context, id string) (models.Playlist, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	playlist, ok := m.s.playlists[id]
	if !ok {
		return models.Playlist{}, ErrNotFound
	}
	return copyPlaylist(playlist), nil
}

func (m memoryPlaylists) ListByOwner(_ context.Context, ownerID string) ([]models.Playlist, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	var out []models.Playlist
	for _, playlist := range m.s.playlists {
		if playlist.OwnerID == ownerID {
			out = append(out, copyPlaylist(playlist))
		}
	}
	newestFirst(out, func(p models.Playlist) time.Time { return p.CreatedAt })
	return out, nil
}

func (m memoryPlaylists) Update(_ context.Context, playlist models.Playlist) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	stored, ok := m.s.playlists[playlist.ID]
	if !ok {
		return ErrNotFound
	}
	stored.Name = playlist.Name
	stored.Description = playlist.Description
	stored.UpdatedAt = playlist.UpdatedAt
	m.s.playlists[playlist.ID] = stored
	return nil
}

func (m memoryPlaylists) AddVideo(_ context.Context, playlistID, videoID string, updatedAt time.Time) (models.Playlist, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	playlist, ok := m.s.playlists[playlistID]
	if !ok {
		return models.Playlist{}, ErrNotFound
	}
	if _, ok := m.s.videos[videoID]; !ok {
		return models.Playlist{}, ErrNotFound
	}
	if !slices.Contains(playlist.Videos, videoID) {
		playlist.Videos = append(append([]string{}, playlist.Videos...), videoID)
	}
	playlist.UpdatedAt = updatedAt
	m.s.playlists[playlistID] = playlist
	return copyPlaylist(playlist), nil
}

func (m memoryPlaylists) RemoveVideo(_ context.Context, playlistID, videoID string, updatedAt time.Time) (models.Playlist, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	playlist, ok := m.s.playlists[playlistID]
	if !ok {
		return models.Playlist{}, ErrNotFound
	}
	playlist.Videos = slices.DeleteFunc(append([]string{}, playlist.Videos...), func(v string) bool { return v == videoID })
	playlist.UpdatedAt = updatedAt
	m.s.playlists[playlistID] = playlist
	return copyPlaylist(playlist), nil
}

func (m memoryPlaylists) RemoveVideoEverywhere(_ context.Context, videoID string) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	var n int64
	for id, playlist := range m.s.playlists {
		if !slices.Contains(playlist.Videos, videoID) {
			continue
		}
		playlist.Videos = slices.DeleteFunc(append([]string{}, playlist.Videos...), func(v string) bool { return v == videoID })
		m.s.playlists[id] = playlist
		n++
	}
	return n, nil
}

func (m memoryPlaylists) Delete(_ context.Context, id string) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if _, ok := m.s.playlists[id]; !ok {
		return false, nil
	}
	delete(m.s.playlists, id)
	return true, nil
}

func (m memoryPlaylists) DeleteByOwner(_ context.Context, ownerID string) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	var n int64
	for id, playlist := range m.s.playlists {
		if playlist.OwnerID == ownerID {
			delete(m.s.playlists, id)
			n++
		}
	}
	return n, nil
}
