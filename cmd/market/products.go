package main

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/sudo-init-do/marketfront/internal/api"
	"github.com/sudo-init-do/marketfront/internal/listing"
)

func printProducts(a *app, products []api.Product) {
	if len(products) == 0 {
		fmt.Fprintln(a.out, "No products match.")
		return
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tPRICE\tAREA\tSTATUS\tPOSTED")
	for _, p := range products {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			p.ID, p.Title, listing.FormatPrice(p.Price), p.Area, p.Status, posted(p.CreatedAt))
	}
	_ = tw.Flush()
}

func printPager(a *app, state listing.SearchState, totalPages int) {
	pager := listing.NewPager(state.Page, totalPages, nil)
	fmt.Fprintf(a.out, "page %d of %d", state.Page+1, max(totalPages, 1))
	if pager.HasPrev() {
		fmt.Fprintf(a.out, "  prev: --page %d", state.Page-1)
	}
	if pager.HasNext() {
		fmt.Fprintf(a.out, "  next: --page %d", state.Page+1)
	}
	fmt.Fprintln(a.out)
}

func cmdProducts(ctx context.Context, a *app, args []string) error {
	fs := pflag.NewFlagSet("products", pflag.ContinueOnError)
	state := listing.NewSearchState()
	fs.StringVar(&state.Keyword, "keyword", "", "title or description contains")
	fs.StringVar(&state.Area, "area", "", "exact area")
	fs.StringVar(&state.Category, "category", "", "exact category")
	fs.StringVar(&state.MinPrice, "min-price", "", "lowest price")
	fs.StringVar(&state.MaxPrice, "max-price", "", "highest price")
	fs.IntVar(&state.Page, "page", listing.DefaultPage, "zero-based page")
	fs.IntVar(&state.Size, "size", listing.DefaultSize, "page size")
	local := fs.Bool("local", false, "filter the latest products locally, like the home page")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := state.Validate(); err != nil {
		return err
	}
	for _, f := range state.Criteria().IgnoredBounds() {
		fmt.Fprintf(a.out, "note: %s is not a number and was ignored\n", f)
	}

	if *local {
		q := url.Values{}
		q.Set(listing.ParamSize, strconv.Itoa(a.cfg.HomeBatchSize))
		q.Set(listing.ParamSort, listing.DefaultSort)
		batch, err := a.api.ListProducts(ctx, q)
		if err != nil {
			return err
		}
		matched := listing.Filter(batch.Content, state.Criteria())
		printProducts(a, listing.Window(matched, state.Page, state.Size))
		printPager(a, state, listing.TotalPages(len(matched), state.Size))
		return nil
	}

	res, err := a.api.ListProducts(ctx, state.Values())
	if err != nil {
		return err
	}
	printProducts(a, res.Content)
	printPager(a, state, res.TotalPages)
	return nil
}

func parseID(args []string, what string) (int64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("expected one %s id", what)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", what, args[0])
	}
	return id, nil
}

func cmdProduct(ctx context.Context, a *app, args []string) error {
	id, err := parseID(args, "product")
	if err != nil {
		return err
	}
	p, err := a.api.Product(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s  (#%d, %s)\n", p.Title, p.ID, p.Status)
	fmt.Fprintf(a.out, "%s won  ·  %s  ·  %s  ·  posted %s\n", listing.FormatPrice(p.Price), p.Category, p.Area, posted(p.CreatedAt))
	if p.Seller != nil {
		fmt.Fprintf(a.out, "seller: %s (#%d)\n", p.Seller.Nickname, p.Seller.UserID)
	}
	if p.Description != "" {
		fmt.Fprintf(a.out, "\n%s\n", p.Description)
	}
	images := p.Images
	if len(images) == 0 {
		if images, err = a.api.ProductImages(ctx, id); err != nil {
			a.log.Debug("no images", "product_id", id, "error", err)
		}
	}
	for _, img := range images {
		fmt.Fprintf(a.out, "image: %s\n", img)
	}
	return nil
}

func cmdRegister(ctx context.Context, a *app, args []string) error {
	fs := pflag.NewFlagSet("register", pflag.ContinueOnError)
	var form api.ProductForm
	fs.StringVar(&form.Title, "title", "", "title")
	fs.StringVar(&form.Description, "description", "", "description")
	price := fs.String("price", "", "price, separators allowed")
	fs.StringVar(&form.Category, "category", "", "category (see: market categories)")
	fs.StringVar(&form.Area, "area", "", "area (see: market areas)")
	fs.StringSliceVar(&form.Images, "image", nil, "image URL, repeatable")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := a.identity()
	if err != nil {
		return err
	}
	digits := listing.NormalizePrice(*price)
	if digits == "" {
		return fmt.Errorf("register: price is required")
	}
	if form.Price, err = strconv.ParseInt(digits, 10, 64); err != nil {
		return fmt.Errorf("register: price %q is too large", *price)
	}
	if err := api.Validate(&form); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	p, err := a.api.CreateProduct(ctx, id.Auth(), form)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Registered #%d %s for %s won.\n", p.ID, p.Title, listing.FormatPrice(p.Price))
	return nil
}

func cmdDibs(ctx context.Context, a *app, _ []string) error {
	id, err := a.identity()
	if err != nil {
		return err
	}
	products, err := a.api.Dibs(ctx, id.Auth())
	if err != nil {
		return err
	}
	printProducts(a, products)
	return nil
}

func cmdDib(ctx context.Context, a *app, args []string) error {
	productID, err := parseID(args, "product")
	if err != nil {
		return err
	}
	id, err := a.identity()
	if err != nil {
		return err
	}
	state, err := a.api.ToggleDib(ctx, id.Auth(), productID)
	if err != nil {
		return err
	}
	if state.Dibbed {
		fmt.Fprintf(a.out, "Saved #%d.\n", productID)
	} else {
		fmt.Fprintf(a.out, "Removed #%d from saved items.\n", productID)
	}
	return nil
}

func cmdAreas(ctx context.Context, a *app, _ []string) error {
	areas, err := a.refdata.Areas(ctx)
	if err != nil {
		return err
	}
	for _, ar := range areas {
		fmt.Fprintln(a.out, ar.Name)
	}
	return nil
}

func cmdCategories(ctx context.Context, a *app, _ []string) error {
	cats, err := a.refdata.Categories(ctx)
	if err != nil {
		return err
	}
	for _, c := range cats {
		fmt.Fprintln(a.out, c.Name)
	}
	return nil
}
