// services/access.go - Access Control Evaluator
package services

import "github.com/apps390/project-tracker-home-task/models"

// DenyReason explains why an access decision came back false.
type DenyReason string

const (
	DenyNone           DenyReason = ""
	DenyNotOwner       DenyReason = "not_owner"
	DenyProjectDeleted DenyReason = "project_deleted"
	DenyNotAuthorized  DenyReason = "not_authorized"
)

// CanManage allows only the project's creator, and never on a deleted
// project. There is no transitive delegation: members cannot manage.
func CanManage(project *models.Project, actor Actor) (bool, DenyReason) {
	user := ActorUser(actor)
	if user == nil || project.CreatedByID != user.ID {
		return false, DenyNotOwner
	}
	if project.IsDeleted {
		return false, DenyProjectDeleted
	}
	return true, DenyNone
}

// CanAccessAsMember allows the creator and any contributor in the project's
// member set. project.Members must be preloaded.
func CanAccessAsMember(project *models.Project, actor Actor) (bool, DenyReason) {
	if project.IsDeleted {
		return false, DenyProjectDeleted
	}

	switch v := actor.(type) {
	case Manager:
		if project.CreatedByID == v.User.ID {
			return true, DenyNone
		}
	case Member:
		if project.CreatedByID == v.User.ID || project.HasMember(v.Contributor.ID) {
			return true, DenyNone
		}
	}
	return false, DenyNotAuthorized
}
