package wallet

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/realbarber/rbc-wallet-bfa-go/internal/domain"
)

// amountPattern is plain decimal notation: digits with at most one
// decimal point. Signs, exponents and hex floats are not amounts.
var amountPattern = regexp.MustCompile(`^(?:[0-9]+(?:\.[0-9]*)?|\.[0-9]+)$`)

// ParseAmount reads a user-typed amount. All whitespace (including the
// no-break space used as a thousands separator) is dropped and the first
// comma is read as the decimal separator. The result is finite and > 0.
func ParseAmount(raw string) (float64, error) {
	s := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == ' ' {
			return -1
		}
		return r
	}, raw)
	s = strings.Replace(s, ",", ".", 1)
	if !amountPattern.MatchString(s) {
		return 0, &domain.ErrInvalidAmount{Input: raw}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, &domain.ErrInvalidAmount{Input: raw}
	}
	return v, nil
}

// ReceiverType normalises a receiver type; only staff is special-cased.
func ReceiverType(s string) domain.PartyType {
	if strings.EqualFold(strings.TrimSpace(s), string(domain.PartyEmployee)) {
		return domain.PartyEmployee
	}
	return domain.PartyClient
}

// ValidateTransfer checks a composed transfer against the known balance.
// Checks run in order: amount, balance, recipient. Nothing here touches
// the network.
func ValidateTransfer(rawAmount, receiverID, receiverType, note string, balance float64) (*domain.TransferRequest, error) {
	amount, err := ParseAmount(rawAmount)
	if err != nil {
		return nil, err
	}
	if amount > balance {
		return nil, &domain.ErrInsufficientBalance{Available: balance, Required: amount}
	}
	receiverID = strings.TrimSpace(receiverID)
	if receiverID == "" {
		return nil, &domain.ErrInvalidRecipient{}
	}
	return &domain.TransferRequest{
		Amount:       amount,
		ReceiverID:   receiverID,
		ReceiverType: ReceiverType(receiverType),
		Description:  strings.TrimSpace(note),
	}, nil
}

// CanSend mirrors the submit button: enabled for a positive amount within
// the balance while nothing is in flight.
func CanSend(rawAmount string, balance float64, inFlight bool) bool {
	if inFlight {
		return false
	}
	amount, err := ParseAmount(rawAmount)
	return err == nil && amount <= balance
}
