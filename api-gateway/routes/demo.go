package routes

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/tair/storefront/internal/catalog/demo"
	"github.com/tair/storefront/internal/catalog/query"
	"github.com/tair/storefront/pkg/logger"
)

// RegisterDemoRoutes serves the storefront API from the in-memory catalog
// and accounts. api is the /api group.
func RegisterDemoRoutes(api fiber.Router, catalog *demo.Catalog, accounts *demo.Accounts) {
	list := func(fetch func(ctx context.Context) (any, error), failure string) fiber.Handler {
		return func(c *fiber.Ctx) error {
			v, err := fetch(c.UserContext())
			if err != nil {
				logger.Error(c.UserContext()).Err(err).Msg(failure)
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": failure})
			}
			return c.JSON(v)
		}
	}

	api.Get("/products", list(func(ctx context.Context) (any, error) {
		return catalog.Products(ctx)
	}, "Failed to fetch products"))
	api.Get("/products/featured", list(func(ctx context.Context) (any, error) {
		return catalog.Featured(ctx)
	}, "Failed to fetch featured products"))
	api.Get("/products/bestsellers", list(func(ctx context.Context) (any, error) {
		return catalog.Bestsellers(ctx)
	}, "Failed to fetch bestseller products"))
	api.Get("/products/new-launches", list(func(ctx context.Context) (any, error) {
		return catalog.NewLaunches(ctx)
	}, "Failed to fetch new launch products"))
	api.Get("/products/category/:category", func(c *fiber.Ctx) error {
		products, _ := catalog.ByCategory(c.UserContext(), c.Params("category"))
		return c.JSON(products)
	})
	api.Get("/products/:slug", func(c *fiber.Ctx) error {
		p, err := catalog.Product(c.UserContext(), c.Params("slug"))
		if err != nil {
			return notFound(c, err, "Product not found")
		}
		return c.JSON(p)
	})

	api.Get("/categories", list(func(ctx context.Context) (any, error) {
		return catalog.Categories(ctx)
	}, "Failed to fetch categories"))
	api.Get("/categories/:slug", func(c *fiber.Ctx) error {
		cat, err := catalog.Category(c.UserContext(), c.Params("slug"))
		if err != nil {
			return notFound(c, err, "Category not found")
		}
		return c.JSON(cat)
	})
	api.Get("/subcategories", func(c *fiber.Ctx) error {
		var categoryID int64
		if raw := c.Query("categoryId"); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "categoryId must be a number"})
			}
			categoryID = id
		}
		subs, _ := catalog.SubCategories(c.UserContext(), categoryID)
		return c.JSON(subs)
	})
	api.Get("/search", func(c *fiber.Ctx) error {
		res, _ := catalog.Search(c.UserContext(), c.Query("q"))
		return c.JSON(res)
	})

	api.Post("/auth/register", func(c *fiber.Ctx) error {
		var req demo.RegisterRequest
		if err := c.BodyParser(&req); err != nil {
			return authError(c, &demo.ValidationError{Message: "Request body is required"})
		}
		res, err := accounts.Register(c.UserContext(), req)
		if err != nil {
			return authError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	})
	api.Post("/auth/login", loginHandler(accounts.Login))
	api.Post("/admin/login", loginHandler(accounts.AdminLogin))
}

func loginHandler(login func(context.Context, demo.LoginRequest) (demo.AuthResponse, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req demo.LoginRequest
		if err := c.BodyParser(&req); err != nil {
			return authError(c, &demo.ValidationError{Message: "Request body is required"})
		}
		res, err := login(c.UserContext(), req)
		if err != nil {
			return authError(c, err)
		}
		return c.JSON(res)
	}
}

func notFound(c *fiber.Ctx, err error, message string) error {
	if errors.Is(err, query.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": message})
	}
	return err
}

// authError answers with the status and message the storefront API uses
// for each auth failure.
func authError(c *fiber.Ctx, err error) error {
	status, message, known := demo.Failure(err)
	if !known {
		logger.Error(c.UserContext()).Err(err).Msg("Auth request failed")
	}
	return c.Status(status).JSON(fiber.Map{
		"message":   message,
		"timestamp": time.Now().UTC(),
	})
}
