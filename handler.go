package winhotkeys

// Handler is the single-hotkey convenience surface: one combination, one
// callback, one private Manager.
type Handler struct {
	m    *Manager
	spec string
}

// NewHandler parses spec and registers it with a fresh Manager. Parse errors
// surface here, before any OS interaction.
//
// suppress is accepted for interface parity; the registration mechanism
// always captures the combination exclusively.
func NewHandler(spec string, callback Callback, suppress bool, opts ...Option) (*Handler, error) {
	m := NewManager(opts...)
	if _, err := m.RegisterHotkey(spec, callback, suppress); err != nil {
		return nil, err
	}
	return &Handler{m: m, spec: spec}, nil
}

// Start begins listening. A second Start on a live Handler is a no-op.
func (h *Handler) Start() error {
	return h.m.StartListening()
}

// Stop requests teardown of the Handler's listener. Safe to call repeatedly.
func (h *Handler) Stop() {
	h.m.StopListening()
}

// Errors exposes the underlying Manager's asynchronous failure reports.
func (h *Handler) Errors() <-chan error {
	return h.m.Errors()
}

// Done is closed once the listener has fully torn down.
func (h *Handler) Done() <-chan struct{} {
	return h.m.Done()
}

// Combination returns the hotkey text the Handler was built from.
func (h *Handler) Combination() string {
	return h.spec
}
