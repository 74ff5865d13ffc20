package site

import (
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"CacaoStore/internal/cart"
	"CacaoStore/internal/catalog"
	"CacaoStore/internal/checkout"
	"CacaoStore/internal/session"
)

type Server struct {
	Catalog  *catalog.Catalog
	Carts    *cart.Service
	Checkout *checkout.Simulator
	Log      *zap.Logger

	// CheckoutLimit, when set, wraps the checkout form submission.
	CheckoutLimit func(http.Handler) http.Handler

	templates map[string]*template.Template
}

func New(c *catalog.Catalog, carts *cart.Service, sim *checkout.Simulator, log *zap.Logger) (*Server, error) {
	tmpl, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		Catalog:   c,
		Carts:     carts,
		Checkout:  sim,
		Log:       log,
		templates: tmpl,
	}, nil
}

// Routes expects session.Middleware upstream.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/", s.home)
	r.Get("/shop", s.shop)
	r.Get("/shop/{id}", s.product)

	r.Get("/cart", s.cartPage)
	r.Post("/cart/add", s.cartAdd)
	r.Post("/cart/items/{id}/quantity", s.cartUpdate)
	r.Post("/cart/items/{id}/remove", s.cartRemove)
	r.Post("/cart/clear", s.cartClear)

	r.Get("/checkout", s.checkoutPage)
	submit := http.Handler(http.HandlerFunc(s.checkoutSubmit))
	if s.CheckoutLimit != nil {
		submit = s.CheckoutLimit(submit)
	}
	r.Method(http.MethodPost, "/checkout", submit)

	r.Get("/{page}", s.static)

	r.NotFound(s.notFound)

	return r
}

type homeData struct {
	Featured []catalog.Product
}

type shopData struct {
	Filters  []ShopFilter
	Active   string
	Products []catalog.Product
}

type cartData struct {
	Cart cart.Cart
}

type checkoutData struct {
	Cart    cart.Cart
	Details checkout.Details
	Invalid map[string]bool
	Message string
}

type staticData struct {
	Steps   []ProcessStep
	Pillars []Pillar
	Posts   []BlogPost
	Tiers   []Tier
	Gifts   []GiftSet
}

func (s *Server) home(w http.ResponseWriter, r *http.Request) {
	featured := s.Catalog.All()
	if len(featured) > featuredCount {
		featured = featured[:featuredCount]
	}
	s.render(w, http.StatusOK, "home", s.view(r, PageHome, homeData{Featured: featured}))
}

func (s *Server) shop(w http.ResponseWriter, r *http.Request) {
	tag := r.URL.Query().Get("tag")
	s.render(w, http.StatusOK, "shop", s.view(r, PageShop, shopData{
		Filters:  shopFilters,
		Active:   tag,
		Products: s.Catalog.FilterByTag(tag),
	}))
}

func (s *Server) product(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		s.notFound(w, r)
		return
	}
	p, ok := s.Catalog.Get(id)
	if !ok {
		s.notFound(w, r)
		return
	}

	v := s.view(r, PageShop, p)
	v.Title = p.Name
	s.render(w, http.StatusOK, "product", v)
}

func (s *Server) static(w http.ResponseWriter, r *http.Request) {
	p, ok := ParsePage(chi.URLParam(r, "page"))
	if !ok {
		s.notFound(w, r)
		return
	}

	s.render(w, http.StatusOK, string(p), s.view(r, p, staticData{
		Steps:   processSteps,
		Pillars: sustainabilityPillars,
		Posts:   blogPosts,
		Tiers:   subscriptionTiers,
		Gifts:   giftSets,
	}))
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	v := s.view(r, "", nil)
	v.Title = "No encontrado"
	s.render(w, http.StatusNotFound, "notfound", v)
}

func (s *Server) cartPage(w http.ResponseWriter, r *http.Request) {
	c, err := s.sessionCart(r)
	if err != nil {
		s.serverError(w, r, "load cart", err)
		return
	}
	v := s.view(r, "", cartData{Cart: c})
	v.Title = "Tu Selección"
	s.render(w, http.StatusOK, "cart", v)
}

func (s *Server) cartAdd(w http.ResponseWriter, r *http.Request) {
	sid, _ := session.IDFromContext(r.Context())

	id, err := strconv.Atoi(r.PostFormValue("product_id"))
	if err != nil {
		s.notFound(w, r)
		return
	}

	if _, err := s.Carts.Add(r.Context(), sid, id); err != nil {
		if errors.Is(err, cart.ErrUnknownProduct) {
			s.notFound(w, r)
			return
		}
		s.serverError(w, r, "add to cart", err)
		return
	}
	redirectBack(w, r, "/cart")
}

func (s *Server) cartUpdate(w http.ResponseWriter, r *http.Request) {
	sid, _ := session.IDFromContext(r.Context())

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		s.notFound(w, r)
		return
	}
	delta, err := strconv.Atoi(r.PostFormValue("delta"))
	if err != nil {
		redirectBack(w, r, "/cart")
		return
	}

	if _, err := s.Carts.UpdateQuantity(r.Context(), sid, id, delta); err != nil {
		s.serverError(w, r, "update quantity", err)
		return
	}
	redirectBack(w, r, "/cart")
}

func (s *Server) cartRemove(w http.ResponseWriter, r *http.Request) {
	sid, _ := session.IDFromContext(r.Context())

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		s.notFound(w, r)
		return
	}

	if _, err := s.Carts.Remove(r.Context(), sid, id); err != nil {
		s.serverError(w, r, "remove from cart", err)
		return
	}
	redirectBack(w, r, "/cart")
}

func (s *Server) cartClear(w http.ResponseWriter, r *http.Request) {
	sid, _ := session.IDFromContext(r.Context())

	if _, err := s.Carts.Clear(r.Context(), sid); err != nil {
		s.serverError(w, r, "clear cart", err)
		return
	}
	redirectBack(w, r, "/cart")
}

func (s *Server) checkoutPage(w http.ResponseWriter, r *http.Request) {
	c, err := s.sessionCart(r)
	if err != nil {
		s.serverError(w, r, "load cart", err)
		return
	}
	if c.Empty() {
		http.Redirect(w, r, "/cart", http.StatusSeeOther)
		return
	}
	s.renderCheckout(w, r, http.StatusOK, checkoutData{Cart: c})
}

func (s *Server) checkoutSubmit(w http.ResponseWriter, r *http.Request) {
	sid, _ := session.IDFromContext(r.Context())

	d := checkout.Details{
		Email:      r.PostFormValue("email"),
		FirstName:  r.PostFormValue("first_name"),
		LastName:   r.PostFormValue("last_name"),
		Address:    r.PostFormValue("address"),
		City:       r.PostFormValue("city"),
		PostalCode: r.PostFormValue("postal_code"),
	}

	rc, err := s.Checkout.Submit(r.Context(), sid, d)
	if err == nil {
		v := s.view(r, "", rc)
		v.Title = "¡Gracias por tu pedido!"
		s.render(w, http.StatusOK, "success", v)
		return
	}

	var ve *checkout.ValidationError
	switch {
	case errors.Is(err, checkout.ErrEmptyCart):
		http.Redirect(w, r, "/cart", http.StatusSeeOther)
	case errors.As(err, &ve):
		c, lerr := s.sessionCart(r)
		if lerr != nil {
			s.serverError(w, r, "load cart", lerr)
			return
		}
		invalid := make(map[string]bool, len(ve.Fields))
		for _, f := range ve.Fields {
			invalid[f] = true
		}
		s.renderCheckout(w, r, http.StatusBadRequest, checkoutData{Cart: c, Details: d, Invalid: invalid})
	case errors.Is(err, checkout.ErrInProgress):
		c, _ := s.sessionCart(r)
		s.renderCheckout(w, r, http.StatusConflict, checkoutData{
			Cart:    c,
			Details: d,
			Message: "Tu pedido ya se está procesando.",
		})
	default:
		s.serverError(w, r, "checkout", err)
	}
}

func (s *Server) renderCheckout(w http.ResponseWriter, r *http.Request, status int, d checkoutData) {
	v := s.view(r, "", d)
	v.Title = "Checkout Seguro"
	s.render(w, status, "checkout", v)
}

func (s *Server) view(r *http.Request, p Page, data any) View {
	v := View{Page: p, Data: data}
	if c, err := s.sessionCart(r); err == nil {
		v.CartCount = c.Count()
	}
	return v
}

func (s *Server) sessionCart(r *http.Request) (cart.Cart, error) {
	sid, ok := session.IDFromContext(r.Context())
	if !ok {
		return cart.Cart{}, nil
	}
	return s.Carts.Get(r.Context(), sid)
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, what string, err error) {
	s.Log.Error(what+" failed", zap.Error(err), zap.String("path", r.URL.Path))
	http.Error(w, "server error", http.StatusInternalServerError)
}

// redirectBack honours a same-site "next" form value, else goes to fallback.
func redirectBack(w http.ResponseWriter, r *http.Request, fallback string) {
	http.Redirect(w, r, safeNext(r.PostFormValue("next"), fallback), http.StatusSeeOther)
}

func safeNext(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return fallback
	}
	u, err := url.Parse(next)
	if err != nil || u.Host != "" || u.Scheme != "" {
		return fallback
	}
	return next
}
