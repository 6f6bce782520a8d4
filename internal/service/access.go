package service

import (
	"github.com/noah-isme/lapanclass-api/internal/models"
	appErrors "github.com/noah-isme/lapanclass-api/pkg/errors"
)

// requireClassManager allows admins and the officers of the class.
func requireClassManager(session models.Session, classID string) error {
	if session.CanManageClass(classID) {
		return nil
	}
	return appErrors.Clone(appErrors.ErrForbidden, "you cannot manage this class")
}

// requireClassMember allows admins and every account attached to the class, students included.
func requireClassMember(session models.Session, classID string) error {
	if session.IsAdmin() || (session.ClassID != "" && session.ClassID == classID) {
		return nil
	}
	return appErrors.Clone(appErrors.ErrForbidden, "you cannot access this class")
}

// requireTreasurer allows admins and the treasurer of the class.
func requireTreasurer(session models.Session, classID string) error {
	if session.IsAdmin() || (session.Role == models.RoleBendahara && session.ClassID == classID) {
		return nil
	}
	return appErrors.Clone(appErrors.ErrForbidden, "only the class treasurer can change the cash book")
}
