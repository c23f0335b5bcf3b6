package store

import (
	"errors"

	"kimchibot/internal/models"
)

type Command string

const (
	CommandClearOrders Command = "clearOrders"
	CommandClearAll    Command = "clearAllOrders"
)

var (
	ErrTaskNotFound    = errors.New("task not found")
	ErrCommandConflict = errors.New("command slot busy")
)

// Document: файл orderState.json. Его читают и пишут оба процесса.
type Document struct {
	Orders        []models.Task `json:"orders"`
	Command       *Command      `json:"command"`
	CommandParams []string      `json:"commandParams"`
	TetherPrice   *float64      `json:"tetherPrice"`
}

func NewDocument() *Document {
	return &Document{Orders: []models.Task{}}
}

func (d *Document) Find(id string) (int, *models.Task) {
	for i := range d.Orders {
		if d.Orders[i].ID == id {
			return i, &d.Orders[i]
		}
	}
	return -1, nil
}

func (d *Document) Remove(id string) bool {
	idx, _ := d.Find(id)
	if idx < 0 {
		return false
	}
	d.Orders = append(d.Orders[:idx], d.Orders[idx+1:]...)
	return true
}

func (d *Document) ClearCommand() {
	d.Command = nil
	d.CommandParams = nil
}

// EnqueueClear ставит задачу в очередь clearOrders. Уже стоящий clearAllOrders её покрывает.
func (d *Document) EnqueueClear(id string) error {
	switch {
	case d.Command == nil:
		cmd := CommandClearOrders
		d.Command = &cmd
		d.CommandParams = []string{id}
	case *d.Command == CommandClearOrders:
		for _, queued := range d.CommandParams {
			if queued == id {
				return nil
			}
		}
		d.CommandParams = append(d.CommandParams, id)
	case *d.Command == CommandClearAll:
	default:
		return ErrCommandConflict
	}
	return nil
}

func (d *Document) EnqueueClearAll() error {
	if d.Command != nil && *d.Command != CommandClearOrders && *d.Command != CommandClearAll {
		return ErrCommandConflict
	}
	cmd := CommandClearAll
	d.Command = &cmd
	d.CommandParams = nil
	return nil
}
