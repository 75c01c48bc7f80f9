package mail

// Postman carries the options of a send or receive call together with the
// envelopes being sent or the envelopes collected by a receiver.
type Postman struct {
	options   map[string]any
	envelopes []*Envelope
}

func NewPostman(options map[string]any, envelopes ...*Envelope) *Postman {
	if options == nil {
		options = map[string]any{}
	}
	return &Postman{options: options, envelopes: envelopes}
}

func (p *Postman) Options() map[string]any {
	return p.options
}

func (p *Postman) SetOptions(options map[string]any) *Postman {
	if options == nil {
		options = map[string]any{}
	}
	p.options = options
	return p
}

func (p *Postman) AddEnvelope(envelopes ...*Envelope) *Postman {
	for _, e := range envelopes {
		if e != nil {
			p.envelopes = append(p.envelopes, e)
		}
	}
	return p
}

func (p *Postman) Envelopes() []*Envelope {
	return p.envelopes
}

// Messages returns the messages of all envelopes in order.
func (p *Postman) Messages() []*Message {
	var out []*Message
	for _, e := range p.envelopes {
		out = append(out, e.Messages()...)
	}
	return out
}

// Failed returns the messages of all envelopes that carry a delivery error.
func (p *Postman) Failed() []*Message {
	var out []*Message
	for _, e := range p.envelopes {
		out = append(out, e.Failed()...)
	}
	return out
}
