// Package user はユーザープロフィールと退会のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/foodgram/internal/model"
	"github.com/hitoshi/foodgram/internal/repository"
)

// Profile はユーザーと閲覧者から見たフォロー状態。
type Profile struct {
	model.User
	IsSubscribed bool
}

// SubscriptionChecker はフォロー状態の判定インターフェース。
type SubscriptionChecker interface {
	SubscribedAuthorIDs(ctx context.Context, userID string, authorIDs []string) (map[string]bool, error)
}

// Service はユーザー管理のサービス層。
type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	subChecker  SubscriptionChecker
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	subChecker SubscriptionChecker,
) *Service {
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		subChecker:  subChecker,
	}
}

// Me はログイン中のユーザー自身のプロフィールを返す。
func (s *Service) Me(ctx context.Context, userID string) (*Profile, error) {
	u, err := s.find(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Profile{User: *u}, nil
}

// Get は指定ユーザーのプロフィールを返す。viewerIDが空の場合は匿名として扱う。
func (s *Service) Get(ctx context.Context, viewerID, id string) (*Profile, error) {
	u, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	profile := &Profile{User: *u}
	if viewerID != "" && viewerID != u.ID && s.subChecker != nil {
		subscribed, err := s.subChecker.SubscribedAuthorIDs(ctx, viewerID, []string{u.ID})
		if err != nil {
			return nil, fmt.Errorf("フォロー状態の取得に失敗しました: %w", err)
		}
		profile.IsSubscribed = subscribed[u.ID]
	}
	return profile, nil
}

// Withdraw はユーザーの退会処理を実行する。
// セッションを削除した後にユーザーを削除する。レシピ・お気に入り・買い物かご・フォローはCASCADE削除される。
func (s *Service) Withdraw(ctx context.Context, userID string) error {
	if _, err := s.find(ctx, userID); err != nil {
		return err
	}

	slog.Info("退会処理を開始します",
		slog.String("user_id", userID),
	)

	if s.sessionRepo != nil {
		if err := s.sessionRepo.DeleteByUserID(ctx, userID); err != nil {
			return fmt.Errorf("セッションの削除に失敗しました: %w", err)
		}
	}

	if err := s.userRepo.DeleteByID(ctx, userID); err != nil {
		return fmt.Errorf("ユーザーの削除に失敗しました: %w", err)
	}

	slog.Info("退会処理が完了しました",
		slog.String("user_id", userID),
	)
	return nil
}

func (s *Service) find(ctx context.Context, id string) (*model.User, error) {
	if !model.IsValidID(id) {
		return nil, model.NewUserNotFoundError()
	}
	u, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if u == nil {
		return nil, model.NewUserNotFoundError()
	}
	return u, nil
}
