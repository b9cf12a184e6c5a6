// Package state groups the persisted stores of one storefront client and
// keeps one such group per client namespace.
package state

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"sync"

	"github.com/tair/storefront/internal/cart"
	"github.com/tair/storefront/internal/checkout"
	"github.com/tair/storefront/internal/orders"
	"github.com/tair/storefront/internal/persist"
	"github.com/tair/storefront/internal/recent"
	"github.com/tair/storefront/internal/session"
	"github.com/tair/storefront/internal/wishlist"
	"github.com/tair/storefront/kafka"
	"github.com/tair/storefront/pkg/logger"
)

// BackOfficeNamespace holds the order history mirrored from every client for
// the admin orders view.
const BackOfficeNamespace = "backoffice"

var ErrInvalidNamespace = errors.New("state: invalid namespace")

var namespacePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Client is the store set of one namespace. Stores are safe for concurrent
// use and shared by every request for the namespace.
type Client struct {
	Namespace string
	Cart      *cart.Store
	Wishlist  *wishlist.Store
	Orders    *orders.Store
	Session   *session.Store
	Recent    *recent.Store
	Checkout  *checkout.Service

	scope persist.Scope
}

// Key is the persisted key, and change topic, of one of the client's stores.
func (c *Client) Key(store string) string {
	return c.scope.Key(store)
}

// Watch calls fn with the store name after every change to any store of the
// client, local or relayed. The returned func detaches fn.
func (c *Client) Watch(fn func(store string)) func() {
	unsubscribes := []func(){
		c.Cart.Subscribe(func() { fn(cart.SlotName) }),
		c.Wishlist.Subscribe(func() { fn(wishlist.SlotName) }),
		c.Orders.Subscribe(func() { fn(orders.SlotName) }),
		c.Session.Subscribe(func() { fn(session.SlotName) }),
		c.Recent.Subscribe(func() { fn(recent.SlotName) }),
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			for _, u := range unsubscribes {
				u()
			}
		})
	}
}

// Registry builds clients lazily, one per namespace.
type Registry struct {
	base      persist.Scope
	auth      session.Authenticator
	publisher checkout.EventPublisher

	mu      sync.Mutex
	clients map[string]*Client
}

// NewRegistry returns a registry whose clients share base's backend and
// notifier. With a nil publisher placed orders are mirrored to the back
// office in-process instead of through Kafka.
func NewRegistry(base persist.Scope, auth session.Authenticator, publisher checkout.EventPublisher) *Registry {
	r := &Registry{
		base:      base,
		auth:      auth,
		publisher: publisher,
		clients:   make(map[string]*Client),
	}
	if publisher == nil {
		r.publisher = localMirror{r}
	}
	return r
}

// ValidNamespace reports whether ns may name a client namespace.
func ValidNamespace(ns string) bool {
	return namespacePattern.MatchString(ns)
}

// Client returns the stores of ns, creating them on first use.
func (r *Registry) Client(ns string) (*Client, error) {
	if !ValidNamespace(ns) {
		return nil, ErrInvalidNamespace
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.clients[ns]; ok {
		return c, nil
	}

	scope := r.base.WithNamespace(ns)
	c := &Client{
		Namespace: ns,
		Cart:      cart.NewStore(scope),
		Wishlist:  wishlist.NewStore(scope),
		Orders:    orders.NewStore(scope),
		Session:   session.NewStore(scope, r.auth),
		Recent:    recent.NewStore(scope),
		scope:     scope,
	}
	c.Checkout = checkout.NewService(c.Cart, c.Orders, r.publisher, ns)
	r.clients[ns] = c
	return c, nil
}

// BackOffice returns the admin client.
func (r *Registry) BackOffice() *Client {
	c, _ := r.Client(BackOfficeNamespace)
	return c
}

// Namespaces lists the namespaces used since start, sorted.
func (r *Registry) Namespaces() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, 0, len(r.clients))
	for ns := range r.clients {
		out = append(out, ns)
	}
	sort.Strings(out)
	return out
}

// MirrorOrder records a placed order in the back office history. Redelivered
// events are ignored. It has the kafka.OrderPlacedHandler signature.
func (r *Registry) MirrorOrder(ctx context.Context, event kafka.OrderPlacedEvent) error {
	if event.Namespace == BackOfficeNamespace {
		return nil
	}
	added, err := r.BackOffice().Orders.AddOnce(ctx, event.Order)
	if err != nil {
		return err
	}
	if added {
		logger.Debug(ctx).
			Str("order_id", event.Order.ID).
			Str("namespace", event.Namespace).
			Msg("Order mirrored to back office")
	}
	return nil
}

type localMirror struct {
	registry *Registry
}

func (m localMirror) PublishOrderPlaced(ctx context.Context, event kafka.OrderPlacedEvent) error {
	return m.registry.MirrorOrder(ctx, event)
}
