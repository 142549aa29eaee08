package api

import (
	"log"
	"net/http"
	"strings"

	"github.com/example/rental-marketplace/internal/api/middleware"
	"github.com/example/rental-marketplace/internal/auth"
	"github.com/example/rental-marketplace/internal/domain/user"
)

func NewRouter(h *Handlers, ah *AuthHandlers, wh *WebhookHandler, tokens *auth.TokenService) http.Handler {
	mux := http.NewServeMux()

	authn := middleware.AuthMiddleware(tokens)
	vendorOnly := func(next http.HandlerFunc) http.Handler {
		return authn(middleware.RequireRole(user.RoleVendor)(next))
	}

	// Auth
	mux.HandleFunc("/auth/register", methodHandler(http.MethodPost, ah.Register))
	mux.HandleFunc("/auth/login", methodHandler(http.MethodPost, ah.Login))
	mux.HandleFunc("/auth/logout", methodHandler(http.MethodPost, ah.Logout))
	mux.Handle("/auth/me", authn(http.HandlerFunc(ah.Me)))

	// Shops
	mux.Handle("/shops", vendorOnly(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			h.CreateShop(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))
	mux.Handle("/shops/me", vendorOnly(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			h.GetMyShop(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))
	mux.Handle("/shops/me/payments", vendorOnly(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPut:
			h.ConnectPayments(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))
	mux.HandleFunc("/shops/", func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		switch {
		case strings.HasSuffix(path, "/products") && r.Method == http.MethodGet:
			h.ListShopProducts(w, r)
		case r.Method == http.MethodGet:
			h.GetShop(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// Products
	mux.Handle("/products", vendorOnly(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			h.CreateProduct(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))
	mux.HandleFunc("/products/", func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		switch {
		case strings.HasSuffix(path, "/availability") && r.Method == http.MethodGet:
			h.CheckAvailability(w, r)
		case r.Method == http.MethodGet:
			h.GetProduct(w, r)
		case r.Method == http.MethodPut:
			vendorOnly(h.UpdateProduct).ServeHTTP(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// Bookings
	mux.Handle("/bookings", authn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			h.ListBookings(w, r)
		case http.MethodPost:
			middleware.RequireRole(user.RoleCustomer)(http.HandlerFunc(h.CreateBooking)).ServeHTTP(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})))
	mux.Handle("/bookings/", authn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		switch {
		case strings.HasSuffix(path, "/approve") && r.Method == http.MethodPost:
			h.ApproveBooking(w, r)
		case strings.HasSuffix(path, "/reject") && r.Method == http.MethodPost:
			h.RejectBooking(w, r)
		case strings.HasSuffix(path, "/cancel") && r.Method == http.MethodPost:
			h.CancelBooking(w, r)
		case strings.HasSuffix(path, "/activate") && r.Method == http.MethodPost:
			h.ActivateBooking(w, r)
		case strings.HasSuffix(path, "/return") && r.Method == http.MethodPost:
			h.ReturnBooking(w, r)
		case strings.HasSuffix(path, "/complete") && r.Method == http.MethodPost:
			h.CompleteBooking(w, r)
		case strings.HasSuffix(path, "/events") && r.Method == http.MethodGet:
			h.GetBookingEvents(w, r)
		case r.Method == http.MethodGet:
			h.GetBooking(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})))

	// Payment processor callbacks, authenticated by signature only
	mux.HandleFunc("/webhooks/payment", methodHandler(http.MethodPost, wh.HandlePaymentWebhook))

	return withLogging(mux)
}

func methodHandler(method string, fn http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		fn(w, r)
	}
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("[API] %s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
