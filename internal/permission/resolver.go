// Package permission は企業担当者のグループ閲覧範囲を解決する。
package permission

import (
	"context"
	"log/slog"

	"github.com/hitoshi/recruitboard/internal/model"
	"github.com/hitoshi/recruitboard/internal/repository"
)

// Scope は担当者が閲覧できるグループの範囲を表す。生成後は変更できない。
type Scope struct {
	admin    bool
	groupIDs []string
}

// NewScope はScopeを生成する。groupIDsは重複を除き、最初に現れた順で複製して保持する。
func NewScope(isAdministrator bool, groupIDs []string) Scope {
	return Scope{admin: isAdministrator, groupIDs: dedupe(groupIDs)}
}

// EmptyScope は何も閲覧できないスコープを返す。
func EmptyScope() Scope {
	return Scope{}
}

// IsAdministrator は管理者権限を持つかどうかを返す。
func (s Scope) IsAdministrator() bool {
	return s.admin
}

// AccessibleGroupIDs は閲覧可能なグループIDの複製を返す。
func (s Scope) AccessibleGroupIDs() []string {
	out := make([]string, len(s.groupIDs))
	copy(out, s.groupIDs)
	return out
}

// IsEmpty は閲覧可能なグループが1つもない場合にtrueを返す。
func (s Scope) IsEmpty() bool {
	return len(s.groupIDs) == 0
}

// Contains は指定グループが閲覧範囲に含まれるかを返す。
func (s Scope) Contains(groupID string) bool {
	for _, id := range s.groupIDs {
		if id == groupID {
			return true
		}
	}
	return false
}

// GroupFilter はリポジトリ検索用の絞り込み条件に変換する。
// 管理者は企業配下の全グループ、担当者は付与されたグループのみを対象とする。
func (s Scope) GroupFilter() repository.GroupFilter {
	if s.admin {
		return repository.GroupFilter{Unrestricted: true}
	}
	return repository.GroupFilter{GroupIDs: s.AccessibleGroupIDs()}
}

// Resolver は担当者の権限付与からScopeを解決する。
type Resolver struct {
	repo   repository.PermissionRepository
	logger *slog.Logger
}

// NewResolver はResolverを生成する。
func NewResolver(repo repository.PermissionRepository, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{repo: repo, logger: logger}
}

// Resolve は担当者の閲覧範囲を返す。
// ADMINISTRATOR権限が1つでもあれば企業配下の全グループ、そうでなければ付与されたグループのみ。
// 参照に失敗した場合はエラーを返さず空のスコープに縮退する。
func (r *Resolver) Resolve(ctx context.Context, companyUserID, companyAccountID string) Scope {
	grants, err := r.repo.ListGrantsByUser(ctx, companyUserID)
	if err != nil {
		r.logger.Error("グループ権限の取得に失敗しました",
			slog.String("company_user_id", companyUserID),
			slog.String("error", err.Error()),
		)
		return EmptyScope()
	}

	groupIDs := make([]string, 0, len(grants))
	for _, g := range grants {
		if g.PermissionLevel == model.PermissionAdministrator {
			return r.CompanyScope(ctx, companyAccountID)
		}
		groupIDs = append(groupIDs, g.CompanyGroupID)
	}

	return NewScope(false, groupIDs)
}

// CompanyScope は企業配下の全グループを閲覧できる管理者相当のスコープを返す。
// グループ一覧の取得に失敗した場合は空のスコープを返す。
func (r *Resolver) CompanyScope(ctx context.Context, companyAccountID string) Scope {
	groupIDs, err := r.repo.ListGroupIDsByCompany(ctx, companyAccountID)
	if err != nil {
		r.logger.Error("企業グループの取得に失敗しました",
			slog.String("company_account_id", companyAccountID),
			slog.String("error", err.Error()),
		)
		return EmptyScope()
	}
	return NewScope(true, groupIDs)
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
