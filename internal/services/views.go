package services

import (
	"math"

	"github.com/google/uuid"

	"github.com/prodmanhq/prodman-backend/internal/types"
)

type TaskView struct {
	*types.Task
	PercentageCompleted float64 `json:"percentageCompleted"`
}

func newTaskView(task *types.Task) *TaskView {
	return &TaskView{Task: task, PercentageCompleted: calculatePercentage(task.Subtasks)}
}

// calculatePercentage derives completion from the event log: the sum of all
// reported quantities over the sum of all target quantities, as a percentage
// rounded to two decimals. Zero total target is defined as 0.
func calculatePercentage(subtasks []types.Subtask) float64 {
	var totalQuantity int
	var completedQuantity int
	for _, st := range subtasks {
		totalQuantity += st.Quantity
		for _, event := range st.Events {
			completedQuantity += event.QuantityCompleted
		}
	}
	if totalQuantity <= 0 {
		return 0
	}
	return math.Round(float64(completedQuantity)/float64(totalQuantity)*10000) / 100
}

type ComponentView struct {
	Quantity int            `json:"quantity"`
	Product  *types.Product `json:"product"`
}

type ProductView struct {
	*types.Product
	Categories []*types.Category `json:"categories"`
	Components []ComponentView   `json:"components"`
}

func newProductView(product *types.Product) *ProductView {
	categories := make([]*types.Category, 0, len(product.Categories))
	for _, pc := range product.Categories {
		if pc.Category != nil {
			categories = append(categories, pc.Category)
		}
	}
	components := make([]ComponentView, 0, len(product.Components))
	for _, pc := range product.Components {
		components = append(components, ComponentView{Quantity: pc.Quantity, Product: pc.Child})
	}
	return &ProductView{Product: product, Categories: categories, Components: components}
}

type WorkerView struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Name     string    `json:"name"`
	LastName string    `json:"lastName"`
}
