package workflow

import "relist/internal/catalog"

// AllowedTargets returns the legal outbound transitions for a stage. The
// switch enumerates every catalog.Stage explicitly; a stage added without a
// rule here yields no legal transitions and is caught by the table tests.
func AllowedTargets(from catalog.Stage) []catalog.Stage {
	switch from {
	case catalog.StagePhotoUpload:
		return []catalog.Stage{catalog.StageAIProcessing, catalog.StageRejected}
	case catalog.StageAIProcessing:
		return []catalog.Stage{catalog.StageReviewEdit, catalog.StageRejected}
	case catalog.StageReviewEdit:
		return []catalog.Stage{catalog.StagePricing, catalog.StageRejected}
	case catalog.StagePricing:
		return []catalog.Stage{catalog.StageFinalReview, catalog.StageReviewEdit, catalog.StageRejected}
	case catalog.StageFinalReview:
		return []catalog.Stage{catalog.StagePublished, catalog.StageRejected, catalog.StageReviewEdit}
	case catalog.StagePublished, catalog.StageRejected:
		return nil
	}
	return nil
}

// TransitionAllowed reports whether (from -> to) is in the legal-transition
// table.
func TransitionAllowed(from, to catalog.Stage) bool {
	for _, target := range AllowedTargets(from) {
		if target == to {
			return true
		}
	}
	return false
}

// RoleAllowed reports whether the role may initiate the given transition.
// Admins may perform any legal transition. The publisher role performs the
// external listing call as an engine side effect and never initiates
// transitions itself.
func RoleAllowed(from, to catalog.Stage, role catalog.Role) bool {
	if role == catalog.RoleAdmin {
		return true
	}

	switch from {
	case catalog.StagePhotoUpload:
		return role == catalog.RolePhotographer
	case catalog.StageAIProcessing:
		return role == catalog.RoleProcessor
	case catalog.StageReviewEdit:
		if to == catalog.StagePricing {
			return role == catalog.RoleManager
		}
		// Rejection out of review is available to the roles that edit there.
		return role == catalog.RoleProcessor || role == catalog.RoleManager
	case catalog.StagePricing:
		return role == catalog.RolePricer
	case catalog.StageFinalReview:
		return role == catalog.RoleManager
	case catalog.StagePublished, catalog.StageRejected:
		return false
	}
	return false
}

// Audit action labels recorded with each transition.
const (
	ActionAdvance       = "advance"
	ActionSendBack      = "send_back"
	ActionReject        = "reject"
	ActionPublish       = "publish"
	ActionPublishFailed = "publish_failed"
)

// ActionLabel derives the audit label for a transition.
func ActionLabel(from, to catalog.Stage) string {
	switch {
	case to == catalog.StageRejected:
		return ActionReject
	case to == catalog.StagePublished:
		return ActionPublish
	case from == catalog.StagePricing && to == catalog.StageReviewEdit,
		from == catalog.StageFinalReview && to == catalog.StageReviewEdit:
		return ActionSendBack
	default:
		return ActionAdvance
	}
}
