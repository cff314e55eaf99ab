package orders

import (
	"fmt"
	"strings"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

var validNext = map[Status]map[Status]bool{
	StatusPending:    {StatusProcessing: true, StatusCancelled: true},
	StatusProcessing: {StatusShipped: true, StatusCancelled: true},
	StatusShipped:    {StatusDelivered: true, StatusCancelled: true},
	StatusDelivered:  {},
	StatusCancelled:  {},
}

// statusOrder fixes the listing order of NextStatuses.
var statusOrder = []Status{StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

// NextStatuses lists the targets reachable from s.
func NextStatuses(s Status) []Status {
	out := []Status{}
	for _, to := range statusOrder {
		if validNext[s][to] {
			out = append(out, to)
		}
	}
	return out
}

func (s Status) Valid() bool {
	_, ok := validNext[s]
	return ok
}

func (s Status) Terminal() bool {
	return s.Valid() && len(validNext[s]) == 0
}

func ParseStatus(v string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(v)))
	if !s.Valid() {
		return "", fmt.Errorf("%w: unknown status %q", ErrValidation, v)
	}
	return s, nil
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

var validPaymentNext = map[PaymentStatus]map[PaymentStatus]bool{
	PaymentPending:  {PaymentPaid: true, PaymentFailed: true},
	PaymentFailed:   {PaymentPaid: true, PaymentPending: true},
	PaymentPaid:     {PaymentRefunded: true},
	PaymentRefunded: {},
}

func CanChangePayment(from, to PaymentStatus) bool {
	return validPaymentNext[from][to]
}

// PaymentAllowed also weighs the order status: a cancelled order can only be refunded.
func PaymentAllowed(st Status, from, to PaymentStatus) bool {
	if st == StatusCancelled && to != PaymentRefunded {
		return false
	}
	return CanChangePayment(from, to)
}

func ParsePaymentStatus(v string) (PaymentStatus, error) {
	s := PaymentStatus(strings.ToLower(strings.TrimSpace(v)))
	if _, ok := validPaymentNext[s]; !ok {
		return "", fmt.Errorf("%w: unknown payment status %q", ErrValidation, v)
	}
	return s, nil
}

type PaymentMethod string

const (
	PaymentCOD    PaymentMethod = "cod"
	PaymentCard   PaymentMethod = "card"
	PaymentUPI    PaymentMethod = "upi"
	PaymentWallet PaymentMethod = "wallet"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCOD, PaymentCard, PaymentUPI, PaymentWallet:
		return true
	}
	return false
}
