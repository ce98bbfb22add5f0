package services

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/dump-practice-service/internal/auth"
	"github.com/SAP-F-2025/dump-practice-service/internal/models"
	"github.com/SAP-F-2025/dump-practice-service/internal/repositories"
)

// AccessPolicy decides what a caller may do with a dump.
//
// read: owner, admin, public dump, or any group grant
// edit: owner, admin, or an edit grant
// manage (delete, share): owner or admin
type AccessPolicy struct {
	repo repositories.Repository
}

func NewAccessPolicy(repo repositories.Repository) *AccessPolicy {
	return &AccessPolicy{repo: repo}
}

func (p *AccessPolicy) CanRead(ctx context.Context, dump *models.Dump, caller *auth.Identity) (bool, error) {
	if p.CanManage(dump, caller) || dump.IsPublic {
		return true, nil
	}
	grants, err := p.grants(ctx, dump, caller)
	if err != nil {
		return false, err
	}
	return len(grants) > 0, nil
}

func (p *AccessPolicy) CanEdit(ctx context.Context, dump *models.Dump, caller *auth.Identity) (bool, error) {
	if p.CanManage(dump, caller) {
		return true, nil
	}
	grants, err := p.grants(ctx, dump, caller)
	if err != nil {
		return false, err
	}
	for _, g := range grants {
		if g == models.PermissionEdit {
			return true, nil
		}
	}
	return false, nil
}

func (p *AccessPolicy) CanManage(dump *models.Dump, caller *auth.Identity) bool {
	if caller == nil {
		return false
	}
	return caller.IsAdmin() || dump.CreatedBy == caller.UserID
}

func (p *AccessPolicy) grants(ctx context.Context, dump *models.Dump, caller *auth.Identity) ([]models.SharePermission, error) {
	if caller == nil {
		return nil, nil
	}
	grants, err := p.repo.Dump().GrantedPermissions(ctx, dump.ID, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to check dump grants: %w", err)
	}
	return grants, nil
}

// loadDump fetches a dump and maps a missing row to ErrDumpNotFound
func loadDump(ctx context.Context, repo repositories.Repository, id uint) (*models.Dump, error) {
	dump, err := repo.Dump().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrDumpNotFound
		}
		return nil, fmt.Errorf("failed to get dump: %w", err)
	}
	return dump, nil
}

func callerID(caller *auth.Identity) string {
	if caller == nil {
		return ""
	}
	return caller.UserID
}
