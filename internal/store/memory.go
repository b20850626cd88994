package store

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pinpointlabs/pinpoint-backend/internal/models"
)

// MemoryStore keeps every collection in process-lifetime maps. It exists so
// the app runs without cloud credentials; state resets on restart, which is
// intended for demo and test isolation. A single RWMutex guards all maps, so
// feedback numbering stays sequential under concurrent creates.
type MemoryStore struct {
	mu            sync.RWMutex
	users         map[string]models.User
	clients       map[string]models.Client
	projects      map[string]models.Project
	feedbacks     map[string]models.Feedback
	comments      map[string]models.Comment
	notifications map[string]models.Notification
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:         make(map[string]models.User),
		clients:       make(map[string]models.Client),
		projects:      make(map[string]models.Project),
		feedbacks:     make(map[string]models.Feedback),
		comments:      make(map[string]models.Comment),
		notifications: make(map[string]models.Notification),
	}
}

func (s *MemoryStore) Demo() bool { return true }

func (s *MemoryStore) Close() error { return nil }

// --- Users ---

func (s *MemoryStore) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return ErrEmailTaken
		}
	}
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now().UTC()
	s.users[u.ID] = *u
	return nil
}

func (s *MemoryStore) GetUser(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (s *MemoryStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) UpdateUser(_ context.Context, id string, upd UserUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Role != nil {
		u.Role = *upd.Role
	}
	if upd.TeamID != nil {
		u.TeamID = *upd.TeamID
	}
	if upd.ClientID != nil {
		u.ClientID = *upd.ClientID
	}
	if upd.LastLoginAt != nil {
		u.LastLoginAt = upd.LastLoginAt
	}
	// Key by the stored ID, not the caller's string: fiber hands handlers
	// zero-copy params backed by the request buffer, and Go map assignment
	// replaces the stored key bytes for string keys.
	s.users[u.ID] = u
	return nil
}

func (s *MemoryStore) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return ErrNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *MemoryStore) ListUsers(_ context.Context, f UserFilter) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.User
	for _, u := range s.users {
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if f.TeamID != "" && u.TeamID != f.TeamID {
			continue
		}
		if f.ClientID != "" && u.ClientID != f.ClientID {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return truncate(out, limitOr(f.Limit, defaultListLimit)), nil
}

// --- Clients ---

func (s *MemoryStore) CreateClient(_ context.Context, cl *models.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.clients {
		if strings.EqualFold(existing.Email, cl.Email) {
			return ErrEmailTaken
		}
	}
	cl.ID = uuid.NewString()
	cl.CreatedAt = time.Now().UTC()
	s.clients[cl.ID] = *cl
	return nil
}

func (s *MemoryStore) GetClient(_ context.Context, id string) (*models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cl, ok := s.clients[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &cl, nil
}

func (s *MemoryStore) UpdateClient(_ context.Context, id string, upd ClientUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cl, ok := s.clients[id]
	if !ok {
		return ErrNotFound
	}
	if upd.Name != nil {
		cl.Name = *upd.Name
	}
	if upd.Phone != nil {
		cl.Phone = *upd.Phone
	}
	if upd.Company != nil {
		cl.Company = *upd.Company
	}
	if upd.Logo != nil {
		cl.Logo = *upd.Logo
	}
	if upd.AssignedTeamID != nil {
		cl.AssignedTeamID = *upd.AssignedTeamID
	}
	s.clients[cl.ID] = cl
	return nil
}

func (s *MemoryStore) DeleteClient(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[id]; !ok {
		return ErrNotFound
	}
	for _, p := range s.projects {
		if p.ClientID == id {
			return ErrClientHasProjects
		}
	}
	delete(s.clients, id)
	return nil
}

func (s *MemoryStore) ListClients(_ context.Context, f ClientFilter) ([]models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Client
	for _, cl := range s.clients {
		if f.AssignedTeamID != "" && cl.AssignedTeamID != f.AssignedTeamID {
			continue
		}
		out = append(out, cl)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return truncate(out, limitOr(f.Limit, defaultListLimit)), nil
}

// --- Projects ---

func (s *MemoryStore) CreateProject(_ context.Context, p *models.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	p.ID = uuid.NewString()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.Status == "" {
		p.Status = models.ProjectActive
	}
	s.projects[p.ID] = *p
	return nil
}

func (s *MemoryStore) GetProject(_ context.Context, id string) (*models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (s *MemoryStore) GetProjectByToken(_ context.Context, token string) (*models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.projects {
		if p.PublicAccessToken == token {
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) UpdateProject(_ context.Context, id string, upd ProjectUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return ErrNotFound
	}
	if upd.Name != nil {
		p.Name = *upd.Name
	}
	if upd.Description != nil {
		p.Description = *upd.Description
	}
	if upd.SiteURL != nil {
		p.SiteURL = *upd.SiteURL
	}
	if upd.ClientID != nil {
		p.ClientID = *upd.ClientID
	}
	if upd.TeamID != nil {
		p.TeamID = *upd.TeamID
	}
	if upd.Status != nil {
		p.Status = *upd.Status
	}
	if upd.PublicAccessEnabled != nil {
		p.PublicAccessEnabled = *upd.PublicAccessEnabled
	}
	p.UpdatedAt = time.Now().UTC()
	s.projects[p.ID] = p
	return nil
}

func (s *MemoryStore) DeleteProject(_ context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[id]; !ok {
		return 0, ErrNotFound
	}
	deleted := 0
	for fid, fb := range s.feedbacks {
		if fb.ProjectID == id {
			delete(s.feedbacks, fid)
			deleted++
		}
	}
	delete(s.projects, id)
	return deleted, nil
}

func (s *MemoryStore) ListProjects(_ context.Context, f ProjectFilter) ([]models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Project
	for _, p := range s.projects {
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		if f.ClientID != "" && p.ClientID != f.ClientID {
			continue
		}
		if f.TeamID != "" && p.TeamID != f.TeamID {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return truncate(out, limitOr(f.Limit, defaultListLimit)), nil
}

// --- Feedbacks ---

func (s *MemoryStore) CreateFeedback(_ context.Context, fb *models.Feedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[fb.ProjectID]; !ok {
		return ErrNotFound
	}
	max := 0
	for _, existing := range s.feedbacks {
		if existing.ProjectID == fb.ProjectID && existing.Number > max {
			max = existing.Number
		}
	}
	now := time.Now().UTC()
	fb.ID = uuid.NewString()
	fb.Number = max + 1
	fb.CreatedAt = now
	fb.UpdatedAt = now
	if fb.Status == "" {
		fb.Status = models.FeedbackNew
	}
	if fb.Priority == "" {
		fb.Priority = models.PriorityMedium
	}
	s.feedbacks[fb.ID] = *fb
	return nil
}

func (s *MemoryStore) GetFeedback(_ context.Context, id string) (*models.Feedback, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fb, ok := s.feedbacks[id]
	if !ok {
		return nil, ErrNotFound
	}
	fb.StatusHistory = slices.Clone(fb.StatusHistory)
	fb.Attachments = slices.Clone(fb.Attachments)
	return &fb, nil
}

func (s *MemoryStore) UpdateFeedback(_ context.Context, id string, upd FeedbackUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fb, ok := s.feedbacks[id]
	if !ok {
		return ErrNotFound
	}
	now := time.Now().UTC()
	if upd.Title != nil {
		fb.Title = *upd.Title
	}
	if upd.Description != nil {
		fb.Description = *upd.Description
	}
	if upd.Priority != nil {
		fb.Priority = *upd.Priority
	}
	if upd.AssignedTo != nil {
		fb.AssignedTo = *upd.AssignedTo
	}
	if upd.Deadline != nil {
		fb.Deadline = upd.Deadline
	}
	if upd.AfterImage != nil {
		fb.AfterImage = *upd.AfterImage
	}
	if upd.AudioURL != nil {
		fb.AudioURL = *upd.AudioURL
	}
	if upd.Status != nil {
		note := ""
		if upd.StatusNote != nil {
			note = *upd.StatusNote
		}
		fb.StatusHistory = slices.Clone(fb.StatusHistory)
		applyStatusChange(&fb, *upd.Status, upd.ChangedBy, note, now)
	}
	fb.UpdatedAt = now
	s.feedbacks[fb.ID] = fb
	return nil
}

func (s *MemoryStore) DeleteFeedback(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.feedbacks[id]; !ok {
		return ErrNotFound
	}
	delete(s.feedbacks, id)
	return nil
}

func (s *MemoryStore) ListFeedbacks(_ context.Context, f FeedbackFilter) ([]models.Feedback, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Feedback
	for _, fb := range s.feedbacks {
		if f.ProjectID != "" && fb.ProjectID != f.ProjectID {
			continue
		}
		if f.Status != "" && fb.Status != f.Status {
			continue
		}
		if f.AssignedTo != "" && fb.AssignedTo != f.AssignedTo {
			continue
		}
		out = append(out, fb)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return truncate(out, limitOr(f.Limit, defaultListLimit)), nil
}

// --- Comments ---

func (s *MemoryStore) CreateComment(_ context.Context, cm *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fb, ok := s.feedbacks[cm.FeedbackID]
	if !ok {
		return ErrNotFound
	}
	now := time.Now().UTC()
	cm.ID = uuid.NewString()
	cm.CreatedAt = now
	s.comments[cm.ID] = *cm
	fb.UpdatedAt = now
	s.feedbacks[fb.ID] = fb
	return nil
}

func (s *MemoryStore) GetComment(_ context.Context, id string) (*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cm, ok := s.comments[id]
	if !ok {
		return nil, ErrNotFound
	}
	cm.Mentions = slices.Clone(cm.Mentions)
	cm.Attachments = slices.Clone(cm.Attachments)
	return &cm, nil
}

func (s *MemoryStore) UpdateComment(_ context.Context, id string, upd CommentUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cm, ok := s.comments[id]
	if !ok {
		return ErrNotFound
	}
	now := time.Now().UTC()
	if upd.Content != nil || upd.Mentions != nil {
		if upd.Content != nil {
			cm.Content = *upd.Content
		}
		var explicit []string
		if upd.Mentions != nil {
			explicit = *upd.Mentions
		}
		cm.Mentions = models.ExtractMentions(cm.Content, explicit)
	}
	if upd.Attachments != nil {
		cm.Attachments = slices.Clone(*upd.Attachments)
	}
	cm.EditedAt = &now
	s.comments[id] = cm
	return nil
}

func (s *MemoryStore) DeleteComment(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.comments[id]; !ok {
		return ErrNotFound
	}
	delete(s.comments, id)
	return nil
}

func (s *MemoryStore) ListComments(_ context.Context, f CommentFilter) ([]models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Comment
	for _, cm := range s.comments {
		if f.FeedbackID != "" && cm.FeedbackID != f.FeedbackID {
			continue
		}
		out = append(out, cm)
	}
	// Thread order: oldest first.
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return truncate(out, limitOr(f.Limit, defaultCommentLimit)), nil
}

// --- Notifications ---

func (s *MemoryStore) CreateNotification(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n.ID = uuid.NewString()
	n.CreatedAt = time.Now().UTC()
	s.notifications[n.ID] = *n
	return nil
}

func (s *MemoryStore) ListNotifications(_ context.Context, f NotificationFilter) ([]models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Notification
	for _, n := range s.notifications {
		if f.UserID != "" && n.UserID != f.UserID {
			continue
		}
		if f.UnreadOnly && n.Read {
			continue
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return truncate(out, limitOr(f.Limit, defaultNotificationLimit)), nil
}

func (s *MemoryStore) MarkNotificationRead(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok {
		return ErrNotFound
	}
	now := time.Now().UTC()
	n.Read = true
	n.ReadAt = &now
	s.notifications[id] = n
	return nil
}

func (s *MemoryStore) MarkAllNotificationsRead(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	count := 0
	for id, n := range s.notifications {
		if n.UserID == userID && !n.Read {
			n.Read = true
			n.ReadAt = &now
			s.notifications[id] = n
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) DeleteNotification(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notifications[id]; !ok {
		return ErrNotFound
	}
	delete(s.notifications, id)
	return nil
}

func truncate[T any](in []T, limit int) []T {
	if len(in) > limit {
		return in[:limit]
	}
	return in
}
