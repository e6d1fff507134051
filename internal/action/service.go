// Package action は担当者が明示的に実行する更新操作を提供する。
// メッセージの既読化、応募の対応済み化、面接結果の登録を扱う。
package action

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/recruitboard/internal/clock"
	"github.com/hitoshi/recruitboard/internal/model"
	"github.com/hitoshi/recruitboard/internal/permission"
	"github.com/hitoshi/recruitboard/internal/repository"
)

// ScopeResolver は担当者の閲覧範囲を解決するインターフェース。
type ScopeResolver interface {
	Resolve(ctx context.Context, companyUserID, companyAccountID string) permission.Scope
}

// Service は更新操作のサービス層。
// 閲覧範囲外のレコードは存在しないものとして扱う。
type Service struct {
	users    repository.CompanyUserRepository
	resolver ScopeResolver
	apps     repository.ApplicationRepository
	msgs     repository.MessageRepository
	clock    clock.Clock
	logger   *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	users repository.CompanyUserRepository,
	resolver ScopeResolver,
	apps repository.ApplicationRepository,
	msgs repository.MessageRepository,
	clk clock.Clock,
	logger *slog.Logger,
) *Service {
	if clk == nil {
		clk = clock.Real{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		users:    users,
		resolver: resolver,
		apps:     apps,
		msgs:     msgs,
		clock:    clk,
		logger:   logger,
	}
}

// MarkMessageRead は候補者からのメッセージを既読にする。既読済みの場合は何もしない。
func (s *Service) MarkMessageRead(ctx context.Context, companyUserID, messageID string) error {
	scope, err := s.scopeFor(ctx, companyUserID)
	if err != nil {
		return err
	}
	if scope.IsEmpty() {
		return model.NewMessageNotFoundError(messageID)
	}

	msg, err := s.msgs.FindInGroups(ctx, messageID, scope.AccessibleGroupIDs())
	if err != nil {
		return fmt.Errorf("メッセージの取得に失敗しました: %w", err)
	}
	if msg == nil || msg.SenderType != model.SenderCandidate {
		return model.NewMessageNotFoundError(messageID)
	}
	if msg.Status == model.MessageRead {
		return nil
	}

	if err := s.msgs.MarkRead(ctx, messageID, s.clock.Now()); err != nil {
		return fmt.Errorf("メッセージの既読化に失敗しました: %w", err)
	}

	s.logger.Info("メッセージを既読にしました",
		slog.String("company_user_id", companyUserID),
		slog.String("message_id", messageID),
	)
	return nil
}

// MarkApplicationResponded はSENTの応募をRESPONDEDに進める。
func (s *Service) MarkApplicationResponded(ctx context.Context, companyUserID, applicationID string) error {
	return s.transition(ctx, companyUserID, applicationID, model.ApplicationSent, model.ApplicationResponded)
}

// RecordInterviewResult はRESPONDEDの応募に面接結果（PASSED / REJECTED）を登録する。
func (s *Service) RecordInterviewResult(ctx context.Context, companyUserID, applicationID, result string) error {
	to := model.ApplicationStatus(result)
	if to != model.ApplicationPassed && to != model.ApplicationRejected {
		return model.NewInvalidInterviewResultError(result)
	}
	return s.transition(ctx, companyUserID, applicationID, model.ApplicationResponded, to)
}

// transition は閲覧範囲内の応募のステータスをfromからtoへ更新する。
func (s *Service) transition(ctx context.Context, companyUserID, applicationID string, from, to model.ApplicationStatus) error {
	scope, err := s.scopeFor(ctx, companyUserID)
	if err != nil {
		return err
	}
	if scope.IsEmpty() {
		return model.NewApplicationNotFoundError(applicationID)
	}

	app, err := s.apps.FindInGroups(ctx, applicationID, scope.AccessibleGroupIDs())
	if err != nil {
		return fmt.Errorf("応募の取得に失敗しました: %w", err)
	}
	if app == nil {
		return model.NewApplicationNotFoundError(applicationID)
	}
	if app.Status != from {
		return model.NewInvalidApplicationStateError(app.Status, from)
	}

	updated, err := s.apps.UpdateStatus(ctx, applicationID, from, to, s.clock.Now())
	if err != nil {
		return fmt.Errorf("応募ステータスの更新に失敗しました: %w", err)
	}
	if !updated {
		// 取得後に別の操作でステータスが変わった
		return model.NewInvalidApplicationStateError(app.Status, from)
	}

	s.logger.Info("応募ステータスを更新しました",
		slog.String("company_user_id", companyUserID),
		slog.String("application_id", applicationID),
		slog.String("from", string(from)),
		slog.String("to", string(to)),
	)
	return nil
}

// Actor は操作を行う担当者と、その所属企業・閲覧範囲。
type Actor struct {
	CompanyUserID    string
	CompanyAccountID string
	Scope            permission.Scope
}

// ResolveActor は担当者を特定して所属企業と閲覧範囲を返す。
// 担当者が存在しない場合はCOMPANY_USER_NOT_FOUNDを返す。
func (s *Service) ResolveActor(ctx context.Context, companyUserID string) (Actor, error) {
	user, err := s.users.FindByID(ctx, companyUserID)
	if err != nil {
		return Actor{}, fmt.Errorf("企業担当者の取得に失敗しました: %w", err)
	}
	if user == nil {
		return Actor{}, model.NewCompanyUserNotFoundError()
	}
	return Actor{
		CompanyUserID:    user.ID,
		CompanyAccountID: user.CompanyAccountID,
		Scope:            s.resolver.Resolve(ctx, user.ID, user.CompanyAccountID),
	}, nil
}

func (s *Service) scopeFor(ctx context.Context, companyUserID string) (permission.Scope, error) {
	actor, err := s.ResolveActor(ctx, companyUserID)
	if err != nil {
		return permission.Scope{}, err
	}
	return actor.Scope, nil
}
