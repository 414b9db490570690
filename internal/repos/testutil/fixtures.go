package testutil

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/prodmanhq/prodman-backend/internal/types"
	"github.com/prodmanhq/prodman-backend/internal/utils"
)

// Fixture helpers. Usernames and emails carry a random suffix so the unique
// indexes never collide between tests sharing the database.

func SeedUser(tb testing.TB, tx *gorm.DB, role string) *types.User {
	tb.Helper()

	suffix := uuid.New().String()[:8]
	hash, err := utils.HashPassword("secret123")
	if err != nil {
		tb.Fatalf("hash fixture password: %v", err)
	}
	user := &types.User{
		ID:        uuid.New(),
		Username:  "user_" + suffix,
		Email:     "user_" + suffix + "@example.com",
		Name:      "Test",
		LastName:  "User",
		Password:  hash,
		Role:      role,
		Active:    true,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := tx.Create(user).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return user
}

func SeedProduct(tb testing.TB, tx *gorm.DB, name string) *types.Product {
	tb.Helper()

	product := &types.Product{
		ID:        uuid.New(),
		Name:      name,
		Price:     10,
		Reference: "REF-" + uuid.New().String()[:8],
		Active:    true,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := tx.Create(product).Error; err != nil {
		tb.Fatalf("seed product: %v", err)
	}
	return product
}

func SeedComponent(tb testing.TB, tx *gorm.DB, parent, child *types.Product, quantity int) *types.ProductComponent {
	tb.Helper()

	edge := &types.ProductComponent{
		ID:       uuid.New(),
		ParentID: parent.ID,
		ChildID:  child.ID,
		Quantity: quantity,
	}
	if err := tx.Create(edge).Error; err != nil {
		tb.Fatalf("seed component edge: %v", err)
	}
	return edge
}

func SeedCategory(tb testing.TB, tx *gorm.DB, name string) *types.Category {
	tb.Helper()

	category := &types.Category{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := tx.Create(category).Error; err != nil {
		tb.Fatalf("seed category: %v", err)
	}
	return category
}

func SeedTask(tb testing.TB, tx *gorm.DB, user *types.User, status string) *types.Task {
	tb.Helper()

	task := &types.Task{
		ID:        uuid.New(),
		Status:    status,
		UserID:    user.ID,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := tx.Create(task).Error; err != nil {
		tb.Fatalf("seed task: %v", err)
	}
	return task
}

func SeedSubtask(tb testing.TB, tx *gorm.DB, task *types.Task, product *types.Product, order, quantity int, status string) *types.Subtask {
	tb.Helper()

	subtask := &types.Subtask{
		ID:        uuid.New(),
		TaskID:    task.ID,
		Order:     order,
		Quantity:  quantity,
		Status:    status,
		ProductID: product.ID,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := tx.Create(subtask).Error; err != nil {
		tb.Fatalf("seed subtask: %v", err)
	}
	return subtask
}

func SeedEvent(tb testing.TB, tx *gorm.DB, subtask *types.Subtask, quantity int, at time.Time) *types.SubtaskEvent {
	tb.Helper()

	event := &types.SubtaskEvent{
		ID:                uuid.New(),
		SubtaskID:         subtask.ID,
		QuantityCompleted: quantity,
		Timestamp:         at,
	}
	if err := tx.Create(event).Error; err != nil {
		tb.Fatalf("seed subtask event: %v", err)
	}
	return event
}

func SeedConfig(tb testing.TB, tx *gorm.DB, key, value, valueType string) {
	tb.Helper()

	entry := &types.AppConfig{Key: key, Value: value, Type: valueType}
	if err := tx.Save(entry).Error; err != nil {
		tb.Fatalf("seed config %s: %v", key, err)
	}
}
