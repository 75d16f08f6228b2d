package mq

// Routing keys for tracking events on the shared topic exchange.
const (
	RoutingKeyMilestoneCreated    = "milestone.created"
	RoutingKeyMilestoneUpdated    = "milestone.updated"
	RoutingKeyMilestoneDeleted    = "milestone.deleted"
	RoutingKeyMilestoneExtended   = "milestone.extended"
	RoutingKeyMilestoneItemsMoved = "milestone.items_moved"
	RoutingKeyMilestoneOverdue    = "milestone.overdue"
	RoutingKeyInvitationStatus    = "invitation.status.changed"
)

type MilestonePayload struct {
	GroupID     string `json:"group_id"`
	MilestoneID int    `json:"milestone_id"`
	Name        string `json:"name,omitempty"`
}

type MilestoneExtendedPayload struct {
	GroupID       string `json:"group_id"`
	MilestoneID   int    `json:"milestone_id"`
	NewTargetDate string `json:"new_target_date"`
}

type ItemsMovedPayload struct {
	GroupID           string `json:"group_id"`
	SourceMilestoneID int    `json:"source_milestone_id"`
	TargetMilestoneID int    `json:"target_milestone_id"`
	MovedCount        int    `json:"moved_count"`
	CreatedNew        bool   `json:"created_new"`
}

type MilestoneOverduePayload struct {
	GroupID         string `json:"group_id"`
	MilestoneID     int    `json:"milestone_id"`
	Name            string `json:"name"`
	TargetDate      string `json:"target_date"`
	IncompleteItems int    `json:"incomplete_items"`
}

// InvitationStatusPayload mirrors the push message recruitment posts expect:
// {type, postId, status}.
type InvitationStatusPayload struct {
	GroupID string `json:"group_id"`
	PostID  string `json:"postId"`
	Status  string `json:"status"`
}
