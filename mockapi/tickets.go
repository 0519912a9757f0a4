package mockapi

import (
	"sync"
	"time"
)

// Ticket is a maintenance request raised against a unit.
type Ticket struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	Unit      string    `json:"unit,omitempty"`
	Status    string    `json:"status"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

type ticketBook struct {
	mu      sync.Mutex
	nextID  int
	tickets []Ticket
}

func newTicketBook() *ticketBook {
	return &ticketBook{nextID: 1}
}

func (b *ticketBook) add(title, unit, createdBy string) Ticket {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := Ticket{
		ID:        b.nextID,
		Title:     title,
		Unit:      unit,
		Status:    "open",
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
	}
	b.nextID++
	b.tickets = append(b.tickets, t)
	return t
}

func (b *ticketBook) list() []Ticket {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Ticket{}, b.tickets...)
}

func (b *ticketBook) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.tickets)
}
