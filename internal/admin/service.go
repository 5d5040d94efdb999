// Package admin backs the moderation screens: the user list, user status
// changes and the queue of unprocessed reports.
package admin

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/sudo-init-do/marketfront/internal/api"
)

const (
	DefaultPageSize = 20

	// UnknownNickname is shown for users the backend no longer knows.
	UnknownNickname = "(deleted user)"

	lookupLimit = 8
)

var ErrInvalidStatus = fmt.Errorf("admin: status must be %s or %s", api.UserActive, api.UserSuspended)

// Backend is the part of the API moderation needs. *api.Client implements it.
type Backend interface {
	AdminUsers(ctx context.Context, auth api.Auth, page, size int) (api.Page[api.User], error)
	AdminUser(ctx context.Context, auth api.Auth, id int64) (api.User, error)
	SetUserStatus(ctx context.Context, auth api.Auth, id int64, status string) error
	UnprocessedReports(ctx context.Context, auth api.Auth) ([]api.Report, error)
}

// ReportView is a report with both parties' nicknames resolved.
type ReportView struct {
	api.Report
	ReporterNickname string `json:"reporterNickname"`
	TargetNickname   string `json:"targetNickname"`
}

type Service struct {
	backend  Backend
	pageSize int
}

func NewService(b Backend, pageSize int) *Service {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Service{backend: b, pageSize: pageSize}
}

func (s *Service) Users(ctx context.Context, auth api.Auth, page int) (api.Page[api.User], error) {
	if page < 0 {
		page = 0
	}
	return s.backend.AdminUsers(ctx, auth, page, s.pageSize)
}

func (s *Service) SetUserStatus(ctx context.Context, auth api.Auth, userID int64, status string) error {
	if status != api.UserActive && status != api.UserSuspended {
		return ErrInvalidStatus
	}
	return s.backend.SetUserStatus(ctx, auth, userID, status)
}

// UnprocessedReports loads the report queue and resolves every distinct
// reporter and target nickname concurrently.
func (s *Service) UnprocessedReports(ctx context.Context, auth api.Auth) ([]ReportView, error) {
	reports, err := s.backend.UnprocessedReports(ctx, auth)
	if err != nil {
		return nil, err
	}

	var ids []int64
	seen := make(map[int64]bool)
	for _, r := range reports {
		for _, id := range []int64{r.ReporterID, r.TargetUserID} {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}

	names, err := s.nicknames(ctx, auth, ids)
	if err != nil {
		return nil, err
	}

	views := make([]ReportView, len(reports))
	for i, r := range reports {
		views[i] = ReportView{
			Report:           r,
			ReporterNickname: names[r.ReporterID],
			TargetNickname:   names[r.TargetUserID],
		}
	}
	return views, nil
}

func (s *Service) nicknames(ctx context.Context, auth api.Auth, ids []int64) (map[int64]string, error) {
	var mu sync.Mutex
	names := make(map[int64]string, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(lookupLimit)
	for _, id := range ids {
		g.Go(func() error {
			u, err := s.backend.AdminUser(gctx, auth, id)
			name := u.Nickname
			switch {
			case errors.Is(err, api.ErrNotFound):
				name = UnknownNickname
			case err != nil:
				return fmt.Errorf("look up user %d: %w", id, err)
			}
			mu.Lock()
			names[id] = name
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return names, nil
}
