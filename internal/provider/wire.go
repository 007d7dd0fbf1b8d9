package provider

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/korg1OOO/baratosociais/internal/model"
)

// flexString decodes a JSON string, number or boolean into its text form.
// The provider is inconsistent about quoting numeric fields.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*f = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
	default:
		*f = flexString(data)
	}
	return nil
}

func (f flexString) int64() (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(string(f)), 10, 64)
	return n, err == nil
}

// flexBool decodes true/false, 1/0 and their quoted forms.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	var s flexString
	if err := s.UnmarshalJSON(data); err != nil {
		return err
	}
	v, err := strconv.ParseBool(strings.TrimSpace(string(s)))
	*b = flexBool(err == nil && v)
	return nil
}

type serviceRecord struct {
	Service  flexString `json:"service"`
	Name     string     `json:"name"`
	Type     string     `json:"type"`
	Category string     `json:"category"`
	Rate     flexString `json:"rate"`
	Min      flexString `json:"min"`
	Max      flexString `json:"max"`
	Refill   flexBool   `json:"refill"`
	Cancel   flexBool   `json:"cancel"`
}

func (r serviceRecord) toModel() (model.ProviderService, bool) {
	id, ok := r.Service.int64()
	if !ok {
		return model.ProviderService{}, false
	}
	return model.ProviderService{
		ServiceID: id,
		Name:      strings.TrimSpace(r.Name),
		Type:      r.Type,
		Category:  r.Category,
		Rate:      string(r.Rate),
		Min:       string(r.Min),
		Max:       string(r.Max),
		Refill:    bool(r.Refill),
		Cancel:    bool(r.Cancel),
	}, true
}

type errorEnvelope struct {
	Error flexString `json:"error"`
}

type addResponse struct {
	Order flexString `json:"order"`
}

type statusResponse struct {
	Charge     flexString `json:"charge"`
	StartCount flexString `json:"start_count"`
	Status     string     `json:"status"`
	Remains    flexString `json:"remains"`
	Currency   string     `json:"currency"`
}

type balanceResponse struct {
	Balance  flexString `json:"balance"`
	Currency string     `json:"currency"`
}

type refillResponse struct {
	Refill flexString `json:"refill"`
}

type cancelEntry struct {
	Order  flexString      `json:"order"`
	Cancel json.RawMessage `json:"cancel"`
}
