package models

import "time"

// ChatRoom is the single private conversation between two users.
// ID is derived from the sorted participant pair, so there is at most one
// room per unordered pair. Participant1ID sorts before Participant2ID and
// the name snapshots follow the same order.
type ChatRoom struct {
	ID               string    `gorm:"primaryKey" json:"id"`
	Participant1ID   string    `gorm:"not null;index" json:"-"`
	Participant2ID   string    `gorm:"not null;index" json:"-"`
	Participant1Name string    `json:"-"`
	Participant2Name string    `json:"-"`
	LastMessage      string    `json:"last_message"`
	LastMessageTime  time.Time `json:"last_message_time"`
	CreatedAt        time.Time `json:"created_at"`
}

// Participants returns the ordered participant pair.
func (r *ChatRoom) Participants() []string {
	return []string{r.Participant1ID, r.Participant2ID}
}

// ParticipantNames returns the name snapshots aligned with Participants.
func (r *ChatRoom) ParticipantNames() []string {
	return []string{r.Participant1Name, r.Participant2Name}
}

func (r *ChatRoom) HasParticipant(userID string) bool {
	return userID != "" && (r.Participant1ID == userID || r.Participant2ID == userID)
}

// OtherParticipant returns the id and snapshot name of the participant
// that is not userID.
func (r *ChatRoom) OtherParticipant(userID string) (string, string) {
	if r.Participant1ID == userID {
		return r.Participant2ID, r.Participant2Name
	}
	return r.Participant1ID, r.Participant1Name
}
