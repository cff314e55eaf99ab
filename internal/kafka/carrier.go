package kafka

import "github.com/segmentio/kafka-go"

// HeaderCarrier lets the otel propagator read and write message headers.
type HeaderCarrier struct {
	headers *[]kafka.Header
}

func NewHeaderCarrier(headers *[]kafka.Header) HeaderCarrier {
	return HeaderCarrier{headers: headers}
}

func (c HeaderCarrier) Get(key string) string {
	for _, h := range *c.headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c HeaderCarrier) Set(key, value string) {
	for i, h := range *c.headers {
		if h.Key == key {
			(*c.headers)[i].Value = []byte(value)
			return
		}
	}
	*c.headers = append(*c.headers, kafka.Header{Key: key, Value: []byte(value)})
}

func (c HeaderCarrier) Keys() []string {
	keys := make([]string, len(*c.headers))
	for i, h := range *c.headers {
		keys[i] = h.Key
	}
	return keys
}

// Header returns the value of key in m, or "".
func Header(m kafka.Message, key string) string {
	return NewHeaderCarrier(&m.Headers).Get(key)
}
