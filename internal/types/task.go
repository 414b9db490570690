package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	TaskStatusPending   = "pending"
	TaskStatusCompleted = "completed"
	TaskStatusCancelled = "cancelled"
)

type Task struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Notes     string    `gorm:"column:notes" json:"notes"`
	Status    string    `gorm:"not null;index;column:status" json:"status"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index;column:user_id" json:"userId"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Subtasks  []Subtask `gorm:"foreignKey:TaskID" json:"subtasks,omitempty"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

func (Task) TableName() string {
	return "task"
}

// Order is the dense sequence position within the owning task, assigned at
// creation from the submission order. It is never renumbered: subtasks are
// recreated wholesale when a task update replaces them.
type Subtask struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TaskID    uuid.UUID      `gorm:"type:uuid;not null;index;column:task_id" json:"taskId"`
	Task      *Task          `gorm:"foreignKey:TaskID" json:"-"`
	Order     int            `gorm:"not null;column:sort_order" json:"order"`
	Quantity  int            `gorm:"not null;column:quantity" json:"quantity"`
	Status    string         `gorm:"not null;index;column:status" json:"status"`
	Notes     string         `gorm:"column:notes" json:"notes"`
	ProductID uuid.UUID      `gorm:"type:uuid;not null;index;column:product_id" json:"productId"`
	Product   *Product       `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Events    []SubtaskEvent `gorm:"foreignKey:SubtaskID" json:"events,omitempty"`
	CreatedAt time.Time      `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"not null" json:"updatedAt"`
}

func (Subtask) TableName() string {
	return "subtask"
}

// SubtaskEvent is one partial-completion report. The running completed total
// for a subtask is always the sum of its events; there is no stored counter.
type SubtaskEvent struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SubtaskID         uuid.UUID `gorm:"type:uuid;not null;index;column:subtask_id" json:"subtaskId"`
	QuantityCompleted int       `gorm:"not null;column:quantity_completed" json:"quantityCompleted"`
	Timestamp         time.Time `gorm:"not null;index;column:timestamp" json:"timestamp"`
	Subtask           *Subtask  `gorm:"foreignKey:SubtaskID" json:"subtask,omitempty"`
}

func (SubtaskEvent) TableName() string {
	return "subtask_event"
}
