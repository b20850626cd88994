package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/pinpointlabs/pinpoint-backend/internal/config"
	"github.com/pinpointlabs/pinpoint-backend/internal/models"
)

const (
	colUsers         = "users"
	colClients       = "clients"
	colProjects      = "projects"
	colFeedbacks     = "feedbacks"
	colComments      = "comments"
	colNotifications = "notifications"
)

// FirestoreStore is the production backend. Queries push a single equality
// predicate down to Firestore and compose the remaining filters, ordering and
// limits in-process, which keeps the schema free of composite indexes while
// staying behavior-identical to the memory store.
type FirestoreStore struct {
	client *firestore.Client
}

var _ Store = (*FirestoreStore)(nil)

func NewFirestoreStore(ctx context.Context, cfg *config.Config) (*FirestoreStore, error) {
	var opts []option.ClientOption
	if cfg.FirestoreEmulatorHost == "" {
		creds, err := json.Marshal(map[string]string{
			"type":         "service_account",
			"project_id":   cfg.FirestoreProjectID,
			"client_email": cfg.FirestoreClientEmail,
			"private_key":  cfg.NormalizedPrivateKey(),
			"token_uri":    "https://oauth2.googleapis.com/token",
		})
		if err != nil {
			return nil, fmt.Errorf("failed to build credentials: %w", err)
		}
		opts = append(opts, option.WithCredentialsJSON(creds))
	}

	client, err := firestore.NewClient(ctx, cfg.FirestoreProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	return &FirestoreStore{client: client}, nil
}

func (s *FirestoreStore) Demo() bool { return false }

func (s *FirestoreStore) Close() error { return s.client.Close() }

func notFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

// --- Users ---

func (s *FirestoreStore) CreateUser(ctx context.Context, u *models.User) error {
	if _, err := s.GetUserByEmail(ctx, u.Email); err == nil {
		return ErrEmailTaken
	}
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now().UTC()
	_, err := s.client.Collection(colUsers).Doc(u.ID).Create(ctx, u)
	return err
}

func (s *FirestoreStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	doc, err := s.client.Collection(colUsers).Doc(id).Get(ctx)
	if err != nil {
		if notFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var u models.User
	if err := doc.DataTo(&u); err != nil {
		return nil, err
	}
	u.ID = doc.Ref.ID
	return &u, nil
}

func (s *FirestoreStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	iter := s.client.Collection(colUsers).
		Where("email", "==", strings.ToLower(email)).Limit(1).Documents(ctx)
	defer iter.Stop()
	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var u models.User
	if err := doc.DataTo(&u); err != nil {
		return nil, err
	}
	u.ID = doc.Ref.ID
	return &u, nil
}

func (s *FirestoreStore) UpdateUser(ctx context.Context, id string, upd UserUpdate) error {
	updates := []firestore.Update{}
	if upd.Name != nil {
		updates = append(updates, firestore.Update{Path: "name", Value: *upd.Name})
	}
	if upd.Role != nil {
		updates = append(updates, firestore.Update{Path: "role", Value: *upd.Role})
	}
	if upd.TeamID != nil {
		updates = append(updates, firestore.Update{Path: "teamId", Value: *upd.TeamID})
	}
	if upd.ClientID != nil {
		updates = append(updates, firestore.Update{Path: "clientId", Value: *upd.ClientID})
	}
	if upd.LastLoginAt != nil {
		updates = append(updates, firestore.Update{Path: "lastLoginAt", Value: *upd.LastLoginAt})
	}
	if len(updates) == 0 {
		// Firestore rejects empty update lists; touch the doc so the call is
		// still a visible no-op mutation.
		updates = append(updates, firestore.Update{Path: "updatedAt", Value: time.Now().UTC()})
	}
	_, err := s.client.Collection(colUsers).Doc(id).Update(ctx, updates)
	if notFound(err) {
		return ErrNotFound
	}
	return err
}

func (s *FirestoreStore) DeleteUser(ctx context.Context, id string) error {
	return s.deleteDoc(ctx, colUsers, id)
}

func (s *FirestoreStore) ListUsers(ctx context.Context, f UserFilter) ([]models.User, error) {
	q := s.client.Collection(colUsers).Query
	if f.Role != "" {
		q = q.Where("role", "==", string(f.Role))
	}
	docs, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	var out []models.User
	for _, doc := range docs {
		var u models.User
		if err := doc.DataTo(&u); err != nil {
			return nil, err
		}
		u.ID = doc.Ref.ID
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

func (s *FirestoreStore) CreateClient(ctx context.Context, cl *models.Client) error {
	iter := s.client.Collection(colClients).
		Where("email", "==", strings.ToLower(cl.Email)).Limit(1).Documents(ctx)
	defer iter.Stop()
	if _, err := iter.Next(); err == nil {
		return ErrEmailTaken
	} else if err != iterator.Done {
		return err
	}
	cl.ID = uuid.NewString()
	cl.CreatedAt = time.Now().UTC()
	_, err := s.client.Collection(colClients).Doc(cl.ID).Create(ctx, cl)
	return err
}

func (s *FirestoreStore) GetClient(ctx context.Context, id string) (*models.Client, error) {
	doc, err := s.client.Collection(colClients).Doc(id).Get(ctx)
	if err != nil {
		if notFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var cl models.Client
	if err := doc.DataTo(&cl); err != nil {
		return nil, err
	}
	cl.ID = doc.Ref.ID
	return &cl, nil
}

func (s *FirestoreStore) UpdateClient(ctx context.Context, id string, upd ClientUpdate) error {
	updates := []firestore.Update{}
	if upd.Name != nil {
		updates = append(updates, firestore.Update{Path: "name", Value: *upd.Name})
	}
	if upd.Phone != nil {
		updates = append(updates, firestore.Update{Path: "phone", Value: *upd.Phone})
	}
	if upd.Company != nil {
		updates = append(updates, firestore.Update{Path: "company", Value: *upd.Company})
	}
	if upd.Logo != nil {
		updates = append(updates, firestore.Update{Path: "logo", Value: *upd.Logo})
	}
	if upd.AssignedTeamID != nil {
		updates = append(updates, firestore.Update{Path: "assignedTeamId", Value: *upd.AssignedTeamID})
	}
	if len(updates) == 0 {
		updates = append(updates, firestore.Update{Path: "updatedAt", Value: time.Now().UTC()})
	}
	_, err := s.client.Collection(colClients).Doc(id).Update(ctx, updates)
	if notFound(err) {
		return ErrNotFound
	}
	return err
}

func (s *FirestoreStore) DeleteClient(ctx context.Context, id string) error {
	if _, err := s.GetClient(ctx, id); err != nil {
		return err
	}
	iter := s.client.Collection(colProjects).
		Where("clientId", "==", id).Limit(1).Documents(ctx)
	defer iter.Stop()
	if _, err := iter.Next(); err == nil {
		return ErrClientHasProjects
	} else if err != iterator.Done {
		return err
	}
	return s.deleteDoc(ctx, colClients, id)
}

func (s *FirestoreStore) ListClients(ctx context.Context, f ClientFilter) ([]models.Client, error) {
	q := s.client.Collection(colClients).Query
	if f.AssignedTeamID != "" {
		q = q.Where("assignedTeamId", "==", f.AssignedTeamID)
	}
	docs, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	var out []models.Client
	for _, doc := range docs {
		var cl models.Client
		if err := doc.DataTo(&cl); err != nil {
			return nil, err
		}
		cl.ID = doc.Ref.ID
		out = append(out, cl)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return truncate(out, limitOr(f.Limit, defaultListLimit)), nil
}

// --- Projects ---

func (s *FirestoreStore) CreateProject(ctx context.Context, p *models.Project) error {
	now := time.Now().UTC()
	p.ID = uuid.NewString()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.Status == "" {
		p.Status = models.ProjectActive
	}
	_, err := s.client.Collection(colProjects).Doc(p.ID).Create(ctx, p)
	return err
}

func (s *FirestoreStore) GetProject(ctx context.Context, id string) (*models.Project, error) {
	doc, err := s.client.Collection(colProjects).Doc(id).Get(ctx)
	if err != nil {
		if notFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var p models.Project
	if err := doc.DataTo(&p); err != nil {
		return nil, err
	}
	p.ID = doc.Ref.ID
	return &p, nil
}

func (s *FirestoreStore) GetProjectByToken(ctx context.Context, token string) (*models.Project, error) {
	iter := s.client.Collection(colProjects).
		Where("publicAccessToken", "==", token).Limit(1).Documents(ctx)
	defer iter.Stop()
	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var p models.Project
	if err := doc.DataTo(&p); err != nil {
		return nil, err
	}
	p.ID = doc.Ref.ID
	return &p, nil
}

func (s *FirestoreStore) UpdateProject(ctx context.Context, id string, upd ProjectUpdate) error {
	updates := []firestore.Update{}
	if upd.Name != nil {
		updates = append(updates, firestore.Update{Path: "name", Value: *upd.Name})
	}
	if upd.Description != nil {
		updates = append(updates, firestore.Update{Path: "description", Value: *upd.Description})
	}
	if upd.SiteURL != nil {
		updates = append(updates, firestore.Update{Path: "siteUrl", Value: *upd.SiteURL})
	}
	if upd.ClientID != nil {
		updates = append(updates, firestore.Update{Path: "clientId", Value: *upd.ClientID})
	}
	if upd.TeamID != nil {
		updates = append(updates, firestore.Update{Path: "teamId", Value: *upd.TeamID})
	}
	if upd.Status != nil {
		updates = append(updates, firestore.Update{Path: "status", Value: *upd.Status})
	}
	if upd.PublicAccessEnabled != nil {
		updates = append(updates, firestore.Update{Path: "publicAccessEnabled", Value: *upd.PublicAccessEnabled})
	}
	updates = append(updates, firestore.Update{Path: "updatedAt", Value: time.Now().UTC()})
	_, err := s.client.Collection(colProjects).Doc(id).Update(ctx, updates)
	if notFound(err) {
		return ErrNotFound
	}
	return err
}

func (s *FirestoreStore) DeleteProject(ctx context.Context, id string) (int, error) {
	if _, err := s.GetProject(ctx, id); err != nil {
		return 0, err
	}
	docs, err := s.client.Collection(colFeedbacks).
		Where("projectId", "==", id).Documents(ctx).GetAll()
	if err != nil {
		return 0, err
	}
	// One batch keeps the cascade all-or-nothing.
	batch := s.client.Batch()
	for _, doc := range docs {
		batch.Delete(doc.Ref)
	}
	batch.Delete(s.client.Collection(colProjects).Doc(id))
	if _, err := batch.Commit(ctx); err != nil {
		return 0, err
	}
	return len(docs), nil
}

func (s *FirestoreStore) ListProjects(ctx context.Context, f ProjectFilter) ([]models.Project, error) {
	q := s.client.Collection(colProjects).Query
	switch {
	case f.ClientID != "":
		q = q.Where("clientId", "==", f.ClientID)
	case f.TeamID != "":
		q = q.Where("teamId", "==", f.TeamID)
	case f.Status != "":
		q = q.Where("status", "==", string(f.Status))
	}
	docs, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	var out []models.Project
	for _, doc := range docs {
		var p models.Project
		if err := doc.DataTo(&p); err != nil {
			return nil, err
		}
		p.ID = doc.Ref.ID
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

func (s *FirestoreStore) CreateFeedback(ctx context.Context, fb *models.Feedback) error {
	if _, err := s.GetProject(ctx, fb.ProjectID); err != nil {
		return err
	}
	docs, err := s.client.Collection(colFeedbacks).
		Where("projectId", "==", fb.ProjectID).Select("number").Documents(ctx).GetAll()
	if err != nil {
		return err
	}
	max := 0
	for _, doc := range docs {
		if n, err := doc.DataAt("number"); err == nil {
			if num, ok := n.(int64); ok && int(num) > max {
				max = int(num)
			}
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
	_, err = s.client.Collection(colFeedbacks).Doc(fb.ID).Create(ctx, fb)
	return err
}

func (s *FirestoreStore) GetFeedback(ctx context.Context, id string) (*models.Feedback, error) {
	doc, err := s.client.Collection(colFeedbacks).Doc(id).Get(ctx)
	if err != nil {
		if notFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var fb models.Feedback
	if err := doc.DataTo(&fb); err != nil {
		return nil, err
	}
	fb.ID = doc.Ref.ID
	return &fb, nil
}

func (s *FirestoreStore) UpdateFeedback(ctx context.Context, id string, upd FeedbackUpdate) error {
	now := time.Now().UTC()
	updates := []firestore.Update{}
	if upd.Title != nil {
		updates = append(updates, firestore.Update{Path: "title", Value: *upd.Title})
	}
	if upd.Description != nil {
		updates = append(updates, firestore.Update{Path: "description", Value: *upd.Description})
	}
	if upd.Priority != nil {
		updates = append(updates, firestore.Update{Path: "priority", Value: *upd.Priority})
	}
	if upd.AssignedTo != nil {
		updates = append(updates, firestore.Update{Path: "assignedTo", Value: *upd.AssignedTo})
	}
	if upd.Deadline != nil {
		updates = append(updates, firestore.Update{Path: "deadline", Value: *upd.Deadline})
	}
	if upd.AfterImage != nil {
		updates = append(updates, firestore.Update{Path: "afterImage", Value: *upd.AfterImage})
	}
	if upd.AudioURL != nil {
		updates = append(updates, firestore.Update{Path: "audioUrl", Value: *upd.AudioURL})
	}
	if upd.Status != nil {
		fb, err := s.GetFeedback(ctx, id)
		if err != nil {
			return err
		}
		note := ""
		if upd.StatusNote != nil {
			note = *upd.StatusNote
		}
		if applyStatusChange(fb, *upd.Status, upd.ChangedBy, note, now) {
			updates = append(updates,
				firestore.Update{Path: "status", Value: fb.Status},
				firestore.Update{Path: "statusHistory", Value: fb.StatusHistory},
			)
			if fb.CompletedAt != nil {
				updates = append(updates, firestore.Update{Path: "completedAt", Value: *fb.CompletedAt})
			} else {
				updates = append(updates, firestore.Update{Path: "completedAt", Value: firestore.Delete})
			}
		}
	}
	updates = append(updates, firestore.Update{Path: "updatedAt", Value: now})
	_, err := s.client.Collection(colFeedbacks).Doc(id).Update(ctx, updates)
	if notFound(err) {
		return ErrNotFound
	}
	return err
}

func (s *FirestoreStore) DeleteFeedback(ctx context.Context, id string) error {
	return s.deleteDoc(ctx, colFeedbacks, id)
}

func (s *FirestoreStore) ListFeedbacks(ctx context.Context, f FeedbackFilter) ([]models.Feedback, error) {
	q := s.client.Collection(colFeedbacks).Query
	switch {
	case f.ProjectID != "":
		q = q.Where("projectId", "==", f.ProjectID)
	case f.AssignedTo != "":
		q = q.Where("assignedTo", "==", f.AssignedTo)
	case f.Status != "":
		q = q.Where("status", "==", string(f.Status))
	}
	docs, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	var out []models.Feedback
	for _, doc := range docs {
		var fb models.Feedback
		if err := doc.DataTo(&fb); err != nil {
			return nil, err
		}
		fb.ID = doc.Ref.ID
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

func (s *FirestoreStore) CreateComment(ctx context.Context, cm *models.Comment) error {
	if _, err := s.GetFeedback(ctx, cm.FeedbackID); err != nil {
		return err
	}
	now := time.Now().UTC()
	cm.ID = uuid.NewString()
	cm.CreatedAt = now
	// Comment insert and parent bump commit together.
	batch := s.client.Batch()
	batch.Create(s.client.Collection(colComments).Doc(cm.ID), cm)
	batch.Update(s.client.Collection(colFeedbacks).Doc(cm.FeedbackID),
		[]firestore.Update{{Path: "updatedAt", Value: now}})
	_, err := batch.Commit(ctx)
	return err
}

func (s *FirestoreStore) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	doc, err := s.client.Collection(colComments).Doc(id).Get(ctx)
	if err != nil {
		if notFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var cm models.Comment
	if err := doc.DataTo(&cm); err != nil {
		return nil, err
	}
	cm.ID = doc.Ref.ID
	return &cm, nil
}

func (s *FirestoreStore) UpdateComment(ctx context.Context, id string, upd CommentUpdate) error {
	now := time.Now().UTC()
	updates := []firestore.Update{{Path: "editedAt", Value: now}}
	if upd.Content != nil || upd.Mentions != nil {
		content := ""
		if upd.Content != nil {
			content = *upd.Content
			updates = append(updates, firestore.Update{Path: "content", Value: content})
		} else {
			existing, err := s.GetComment(ctx, id)
			if err != nil {
				return err
			}
			content = existing.Content
		}
		var explicit []string
		if upd.Mentions != nil {
			explicit = *upd.Mentions
		}
		updates = append(updates, firestore.Update{Path: "mentions", Value: models.ExtractMentions(content, explicit)})
	}
	if upd.Attachments != nil {
		updates = append(updates, firestore.Update{Path: "attachments", Value: *upd.Attachments})
	}
	_, err := s.client.Collection(colComments).Doc(id).Update(ctx, updates)
	if notFound(err) {
		return ErrNotFound
	}
	return err
}

func (s *FirestoreStore) DeleteComment(ctx context.Context, id string) error {
	return s.deleteDoc(ctx, colComments, id)
}

func (s *FirestoreStore) ListComments(ctx context.Context, f CommentFilter) ([]models.Comment, error) {
	q := s.client.Collection(colComments).Query
	if f.FeedbackID != "" {
		q = q.Where("feedbackId", "==", f.FeedbackID)
	}
	docs, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	var out []models.Comment
	for _, doc := range docs {
		var cm models.Comment
		if err := doc.DataTo(&cm); err != nil {
			return nil, err
		}
		cm.ID = doc.Ref.ID
		out = append(out, cm)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return truncate(out, limitOr(f.Limit, defaultCommentLimit)), nil
}

// --- Notifications ---

func (s *FirestoreStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	n.ID = uuid.NewString()
	n.CreatedAt = time.Now().UTC()
	_, err := s.client.Collection(colNotifications).Doc(n.ID).Create(ctx, n)
	return err
}

func (s *FirestoreStore) ListNotifications(ctx context.Context, f NotificationFilter) ([]models.Notification, error) {
	q := s.client.Collection(colNotifications).Query
	if f.UserID != "" {
		q = q.Where("userId", "==", f.UserID)
	}
	docs, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	var out []models.Notification
	for _, doc := range docs {
		var n models.Notification
		if err := doc.DataTo(&n); err != nil {
			return nil, err
		}
		n.ID = doc.Ref.ID
		if f.UnreadOnly && n.Read {
			continue
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return truncate(out, limitOr(f.Limit, defaultNotificationLimit)), nil
}

func (s *FirestoreStore) MarkNotificationRead(ctx context.Context, id string) error {
	now := time.Now().UTC()
	_, err := s.client.Collection(colNotifications).Doc(id).Update(ctx, []firestore.Update{
		{Path: "read", Value: true},
		{Path: "readAt", Value: now},
	})
	if notFound(err) {
		return ErrNotFound
	}
	return err
}

func (s *FirestoreStore) MarkAllNotificationsRead(ctx context.Context, userID string) (int, error) {
	docs, err := s.client.Collection(colNotifications).
		Where("userId", "==", userID).Documents(ctx).GetAll()
	if err != nil {
		return 0, err
	}
	now := time.Now().UTC()
	batch := s.client.Batch()
	count := 0
	for _, doc := range docs {
		if read, err := doc.DataAt("read"); err == nil {
			if b, ok := read.(bool); ok && b {
				continue
			}
		}
		batch.Update(doc.Ref, []firestore.Update{
			{Path: "read", Value: true},
			{Path: "readAt", Value: now},
		})
		count++
	}
	if count == 0 {
		return 0, nil
	}
	if _, err := batch.Commit(ctx); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *FirestoreStore) DeleteNotification(ctx context.Context, id string) error {
	return s.deleteDoc(ctx, colNotifications, id)
}

func (s *FirestoreStore) deleteDoc(ctx context.Context, col, id string) error {
	doc := s.client.Collection(col).Doc(id)
	if _, err := doc.Get(ctx); err != nil {
		if notFound(err) {
			return ErrNotFound
		}
		return err
	}
	_, err := doc.Delete(ctx)
	return err
}
