package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/angelmondragon/packfinderz-storefront/internal/app"
	"github.com/angelmondragon/packfinderz-storefront/internal/cart"
	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
	"github.com/angelmondragon/packfinderz-storefront/pkg/enums"
	"github.com/angelmondragon/packfinderz-storefront/pkg/format"
	"github.com/angelmondragon/packfinderz-storefront/pkg/money"
	"github.com/angelmondragon/packfinderz-storefront/pkg/types"
	dto "github.com/prometheus/client_model/go"
)

const currency = "USD"

type command func(ctx context.Context, a *app.App, opts options, w io.Writer) error

var commands = map[string]command{
	"status":          statusCmd,
	"login":           loginCmd,
	"register":        registerCmd,
	"logout":          logoutCmd,
	"reset-password":  resetPasswordCmd,
	"catalog":         catalogCmd,
	"search":          searchCmd,
	"product":         productCmd,
	"categories":      categoriesCmd,
	"reviews":         reviewsCmd,
	"cart":            cartCmd,
	"cart-add":        cartAddCmd,
	"cart-update":     cartUpdateCmd,
	"cart-remove":     cartRemoveCmd,
	"cart-clear":      cartClearCmd,
	"coupon":          couponCmd,
	"checkout":        checkoutCmd,
	"wishlist":        wishlistCmd,
	"wishlist-toggle": wishlistToggleCmd,
	"orders":          ordersCmd,
	"order":           orderCmd,
	"prefs":           prefsCmd,
	"metrics":         metricsCmd,
}

func commandList() string {
	names := make([]string, 0, len(commands)+1)
	for name := range commands {
		names = append(names, name)
	}
	names = append(names, "migrate")
	sort.Strings(names)
	return strings.Join(names, "|")
}

func run(ctx context.Context, a *app.App, opts options, w io.Writer) error {
	cmd, ok := commands[opts.cmd]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown -cmd value %q", opts.cmd))
	}
	return cmd(ctx, a, opts, w)
}

func describe(err error) string {
	return pkgerrors.Describe(err)
}

func statusCmd(_ context.Context, a *app.App, _ options, w io.Writer) error {
	session := a.Auth().Session()
	if session.Authenticated && session.User != nil {
		fmt.Fprintf(w, "signed in as %s (%s)\n", session.User.Email,
			format.Initials(session.User.FirstName, session.User.LastName))
		if session.ExpiresAt != nil {
			fmt.Fprintf(w, "token expires %s\n", format.DateTime(session.ExpiresAt.Format("2006-01-02T15:04:05")))
		}
	} else {
		fmt.Fprintln(w, "not signed in")
		if session.Error != "" {
			fmt.Fprintln(w, session.Error)
		}
	}
	fmt.Fprintf(w, "cart: %d items\n", a.Cart().ItemCount())
	fmt.Fprintf(w, "wishlist: %d products\n", len(a.Wishlist().Items()))
	prefs := a.Preferences().State()
	fmt.Fprintf(w, "language: %s, dark mode: %t, notifications: %t\n", prefs.Language, prefs.DarkMode, prefs.NotificationsEnabled)
	return nil
}

func loginCmd(ctx context.Context, a *app.App, opts options, w io.Writer) error {
	if err := a.LoginWithEmail(ctx, opts.email, opts.password); err != nil {
		return err
	}
	fmt.Fprintln(w, "signed in")
	return nil
}

func registerCmd(ctx context.Context, a *app.App, opts options, w io.Writer) error {
	first, last, _ := strings.Cut(strings.TrimSpace(opts.name), " ")
	if err := a.Register(ctx, types.RegisterInput{
		Email:     opts.email,
		Password:  opts.password,
		FirstName: first,
		LastName:  last,
	}); err != nil {
		return err
	}
	fmt.Fprintln(w, "account created")
	return nil
}

func logoutCmd(ctx context.Context, a *app.App, _ options, w io.Writer) error {
	if err := a.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(w, "signed out")
	return nil
}

func resetPasswordCmd(ctx context.Context, a *app.App, opts options, w io.Writer) error {
	if err := a.API().RequestPasswordReset(ctx, opts.email); err != nil {
		return err
	}
	fmt.Fprintln(w, "password reset email sent")
	return nil
}

func catalogCmd(ctx context.Context, a *app.App, opts options, w io.Writer) error {
	filters := types.ProductFilters{Category: opts.category, Page: opts.page, PerPage: opts.perPage}
	if opts.sort != "" {
		sortBy, err := enums.ParseProductSort(opts.sort)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sort")
		}
		filters.OrderBy = sortBy
	}
	page, err := a.API().ListProducts(ctx, filters)
	if err != nil {
		return err
	}
	printProducts(w, page.Items)
	fmt.Fprintf(w, "page %d of %d (%d products)\n", page.CurrentPage, page.Pages, page.Total)
	return nil
}

func searchCmd(ctx context.Context, a *app.App, opts options, w io.Writer) error {
	page, err := a.API().SearchProducts(ctx, opts.query, types.ProductFilters{Page: opts.page, PerPage: opts.perPage})
	if err != nil {
		return err
	}
	if len(page.Items) == 0 {
		fmt.Fprintln(w, "no products found")
		return nil
	}
	printProducts(w, page.Items)
	return nil
}

func printProducts(w io.Writer, products []types.Product) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, p := range products {
		price := money.FormatCurrency(p.PriceValue(), currency)
		if p.OnSale() {
			price += fmt.Sprintf(" (-%d%%)", money.CalculateDiscount(p.RegularPriceValue(), p.PriceValue()))
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", p.ID, format.Truncate(p.Name, 40), price)
	}
	_ = tw.Flush()
}

func productCmd(ctx context.Context, a *app.App, opts options, w io.Writer) error {
	p, err := a.API().GetProduct(ctx, opts.id)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s [%s]\n", p.Name, format.Slugify(p.Name))
	fmt.Fprintf(w, "price: %s\n", money.FormatCurrency(p.PriceValue(), currency))
	if a.Wishlist().IsFavorite(p.ID) {
		fmt.Fprintln(w, "in wishlist")
	}
	return nil
}

func categoriesCmd(ctx context.Context, a *app.App, opts options, w io.Writer) error {
	page, err := a.API().ListCategories(ctx, types.ListParams{Page: opts.page, PerPage: opts.perPage})
	if err != nil {
		return err
	}
	for _, c := range page.Items {
		fmt.Fprintf(w, "%d\t%s (%d)\n", c.ID, c.Name, c.Count)
	}
	return nil
}

func reviewsCmd(ctx context.Context, a *app.App, opts options, w io.Writer) error {
	page, err := a.API().ListProductReviews(ctx, opts.id, types.ListParams{Page: opts.page, PerPage: opts.perPage})
	if err != nil {
		return err
	}
	for _, r := range page.Items {
		fmt.Fprintf(w, "%d/5 %s on %s: %s\n", r.Rating, r.Reviewer, format.Date(r.DateCreated), format.Truncate(r.Review, 80))
	}
	return nil
}

func cartCmd(_ context.Context, a *app.App, _ options, w io.Writer) error {
	printCart(w, a.Cart().Items(), a.Cart().Totals())
	return nil
}

func printCart(w io.Writer, items []cart.Item, totals cart.Totals) {
	if len(items) == 0 {
		fmt.Fprintln(w, "cart is empty")
		return
	}
	for _, item := range items {
		fmt.Fprintf(w, "%s\tproduct %d x%d\n", item.ID, item.ProductID, item.Quantity)
	}
	fmt.Fprintf(w, "subtotal %s, tax %s, shipping %s, discount %s, total %s\n",
		money.FormatCurrency(totals.Subtotal, currency),
		money.FormatCurrency(totals.Tax, currency),
		money.FormatCurrency(totals.Shipping, currency),
		money.FormatCurrency(totals.Discount, currency),
		money.FormatCurrency(totals.Total, currency))
}

func cartAddCmd(ctx context.Context, a *app.App, opts options, w io.Writer) error {
	a.Cart().AddItem(ctx, cart.Item{ProductID: opts.product, Quantity: opts.quantity})
	return repriceCart(ctx, a, w)
}

func cartUpdateCmd(ctx context.Context, a *app.App, opts options, w io.Writer) error {
	a.Cart().UpdateItem(ctx, opts.line, opts.quantity)
	return repriceCart(ctx, a, w)
}

func cartRemoveCmd(ctx context.Context, a *app.App, opts options, w io.Writer) error {
	a.Cart().RemoveItem(ctx, opts.line)
	return repriceCart(ctx, a, w)
}

func cartClearCmd(ctx context.Context, a *app.App, _ options, w io.Writer) error {
	a.Cart().ClearCart(ctx)
	fmt.Fprintln(w, "cart cleared")
	return nil
}

func repriceCart(ctx context.Context, a *app.App, w io.Writer) error {
	totals, err := a.PriceCart(ctx)
	if err != nil {
		return err
	}
	printCart(w, a.Cart().Items(), totals)
	return nil
}

func couponCmd(ctx context.Context, a *app.App, opts options, w io.Writer) error {
	if strings.TrimSpace(opts.code) == "" {
		a.Cart().RemoveCoupon(ctx)
		return repriceCart(ctx, a, w)
	}
	totals, err := a.ApplyCoupon(ctx, opts.code)
	if err != nil {
		return err
	}
	printCart(w, a.Cart().Items(), totals)
	return nil
}

func checkoutCmd(ctx context.Context, a *app.App, opts options, w io.Writer) error {
	input := app.CheckoutInput{PaymentMethod: opts.payment}
	if session := a.Auth().Session(); session.User != nil {
		input.Billing = types.Address{
			FirstName: session.User.FirstName,
			LastName:  session.User.LastName,
			Email:     session.User.Email,
		}
	}
	order, err := a.Checkout(ctx, input)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "order #%d placed (%s), total %s\n", order.ID, order.Status, money.FormatCurrency(order.TotalValue(), currency))
	return nil
}

func wishlistCmd(_ context.Context, a *app.App, _ options, w io.Writer) error {
	items := a.Wishlist().Items()
	if len(items) == 0 {
		fmt.Fprintln(w, "wishlist is empty")
		return nil
	}
	printProducts(w, items)
	return nil
}

func wishlistToggleCmd(ctx context.Context, a *app.App, opts options, w io.Writer) error {
	product, err := a.API().GetProduct(ctx, opts.product)
	if err != nil {
		return err
	}
	if a.Wishlist().Toggle(ctx, *product) {
		fmt.Fprintf(w, "added %s to wishlist\n", product.Name)
	} else {
		fmt.Fprintf(w, "removed %s from wishlist\n", product.Name)
	}
	return nil
}

func ordersCmd(ctx context.Context, a *app.App, opts options, w io.Writer) error {
	page, err := a.API().ListOrders(ctx, types.ListParams{Page: opts.page, PerPage: opts.perPage})
	if err != nil {
		return err
	}
	for _, o := range page.Items {
		fmt.Fprintf(w, "#%d\t%s\t%s\t%s\n", o.ID, format.Date(o.DateCreated), o.Status, money.FormatCurrency(o.TotalValue(), o.Currency))
	}
	return nil
}

func orderCmd(ctx context.Context, a *app.App, opts options, w io.Writer) error {
	o, err := a.API().GetOrder(ctx, opts.id)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "order #%d (%s) placed %s\n", o.ID, o.Status, format.DateTime(o.DateCreated))
	for _, line := range o.LineItems {
		fmt.Fprintf(w, "  %s x%d\n", line.Name, line.Quantity)
	}
	fmt.Fprintf(w, "%d items, total %s\n", o.ItemCount(), money.FormatCurrency(o.TotalValue(), o.Currency))
	return nil
}

func prefsCmd(ctx context.Context, a *app.App, opts options, w io.Writer) error {
	prefs := a.Preferences()
	switch strings.ToLower(strings.TrimSpace(opts.dark)) {
	case "":
	case "on":
		prefs.SetDarkMode(ctx, true)
	case "off":
		prefs.SetDarkMode(ctx, false)
	case "toggle":
		prefs.ToggleDarkMode(ctx)
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, "-dark must be on, off or toggle")
	}
	if opts.language != "" {
		if err := prefs.SetLanguage(ctx, opts.language); err != nil {
			return err
		}
	}
	state := prefs.State()
	fmt.Fprintf(w, "language: %s, dark mode: %t, notifications: %t\n", state.Language, state.DarkMode, state.NotificationsEnabled)
	return nil
}

// metricsCmd prints the counters collected during this run.
func metricsCmd(_ context.Context, a *app.App, _ options, w io.Writer) error {
	reg := a.Registry()
	if reg == nil {
		fmt.Fprintln(w, "metrics disabled")
		return nil
	}
	families, err := reg.Gather()
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "gather metrics")
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			fmt.Fprintf(w, "%s%s %v\n", mf.GetName(), labelString(m.GetLabel()), metricValue(mf.GetType(), m))
		}
	}
	return nil
}

func labelString(labels []*dto.LabelPair) string {
	if len(labels) == 0 {
		return ""
	}
	parts := make([]string, 0, len(labels))
	for _, l := range labels {
		parts = append(parts, fmt.Sprintf("%s=%q", l.GetName(), l.GetValue()))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func metricValue(kind dto.MetricType, m *dto.Metric) float64 {
	switch kind {
	case dto.MetricType_COUNTER:
		return m.GetCounter().GetValue()
	case dto.MetricType_GAUGE:
		return m.GetGauge().GetValue()
	case dto.MetricType_HISTOGRAM:
		return float64(m.GetHistogram().GetSampleCount())
	default:
		return 0
	}
}
