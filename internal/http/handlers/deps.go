package handlers

import (
	"bazaar/internal/config"
	"bazaar/internal/repos"
	"bazaar/internal/services"

	"github.com/jmoiron/sqlx"
)

type Deps struct {
	CategoryHandler     *CategoryHandler
	ProductHandler      *ProductHandler
	AvailabilityHandler *AvailabilityHandler
	SearchHandler       *SearchHandler
	CartHandler         *CartHandler
	OrderHandler        *OrderHandler
	SellerHandler       *SellerHandler
	ReviewHandler       *ReviewHandler
	SubscriptionHandler *SubscriptionHandler
	AccountHandler      *AccountHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config, auth *services.AuthService) *Deps {
	catRepo := repos.NewCategoryRepo(db)
	prodRepo := repos.NewProductRepo(db)
	listRepo := repos.NewListingRepo(db)
	cartRepo := repos.NewCartRepo(db)
	orderRepo := repos.NewOrderRepo(db)
	reviewRepo := repos.NewReviewRepo(db)
	subRepo := repos.NewSubscriptionRepo(db)
	userRepo := repos.NewUserRepo(db)

	catalogSvc := services.NewCatalogService(catRepo, prodRepo)
	listingSvc := services.NewListingService(db, listRepo)
	cartSvc := services.NewCartService(db, cartRepo)
	checkoutSvc := services.NewCheckoutService(db)
	fulfillSvc := services.NewFulfillmentService(db, orderRepo)
	reviewSvc := services.NewReviewService(reviewRepo, orderRepo)
	subSvc := services.NewSubscriptionService(subRepo)
	accountSvc := services.NewAccountService(userRepo)

	return &Deps{
		CategoryHandler:     &CategoryHandler{Catalog: catalogSvc},
		ProductHandler:      &ProductHandler{Catalog: catalogSvc, Listings: listRepo, Reviews: reviewSvc, Subs: subSvc},
		AvailabilityHandler: &AvailabilityHandler{Listings: listRepo, Catalog: catalogSvc},
		SearchHandler:       &SearchHandler{Catalog: catalogSvc},
		CartHandler:         &CartHandler{Cart: cartSvc, Checkout: checkoutSvc},
		OrderHandler:        &OrderHandler{Orders: orderRepo},
		SellerHandler:       &SellerHandler{Listings: listingSvc, Catalog: catalogSvc, Orders: orderRepo, Fulfill: fulfillSvc},
		ReviewHandler:       &ReviewHandler{Reviews: reviewSvc},
		SubscriptionHandler: &SubscriptionHandler{Subs: subSvc},
		AccountHandler:      &AccountHandler{Accounts: accountSvc},
	}
}
