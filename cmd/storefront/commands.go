package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/angelmondragon/storefront-client/internal/admin"
	"github.com/angelmondragon/storefront-client/internal/app"
	"github.com/angelmondragon/storefront-client/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-client/pkg/errors"
	"github.com/angelmondragon/storefront-client/pkg/types"
)

type cli struct {
	app *app.App
	out io.Writer
}

func (c *cli) dispatch(ctx context.Context, args []string) error {
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "login":
		return c.login(ctx, rest)
	case "logout":
		return c.logout(ctx, rest)
	case "whoami":
		return c.whoami()
	case "create-account":
		return c.createAccount(ctx, rest)
	case "products":
		return c.products(ctx)
	case "cart":
		return c.cart(ctx, rest)
	case "checkout":
		return c.checkout(ctx, rest)
	case "route":
		return c.route(rest)
	case "admin":
		return c.admin(ctx, rest)
	}
	return errUsage
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func (c *cli) login(ctx context.Context, args []string) error {
	fs := newFlagSet("login")
	rawRole := fs.String("role", string(enums.RoleCustomer), "admin or customer")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	role, err := enums.ParseRole(*rawRole)
	if err != nil || !role.Authenticated() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("cannot log in as %q", *rawRole))
	}

	result, err := c.app.Client.Login(ctx, role, types.Credentials{Email: *email, Password: *password})
	if err != nil {
		return err
	}
	if err := c.app.Sessions.Login(ctx, role, result.Token); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "logged in as %s\n", role)
	return nil
}

func (c *cli) logout(ctx context.Context, args []string) error {
	fs := newFlagSet("logout")
	rawRole := fs.String("role", "", "admin or customer; both when empty")
	if err := fs.Parse(args); err != nil {
		return err
	}
	roles := []enums.Role{enums.RoleAdmin, enums.RoleCustomer}
	if *rawRole != "" {
		role, err := enums.ParseRole(*rawRole)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown role")
		}
		roles = []enums.Role{role}
	}
	for _, role := range roles {
		if err := c.app.Sessions.Logout(ctx, role); err != nil {
			return err
		}
	}
	fmt.Fprintf(c.out, "signed in as %s\n", c.app.Sessions.CurrentRole())
	return nil
}

func (c *cli) whoami() error {
	role := c.app.Sessions.CurrentRole()
	fmt.Fprintln(c.out, role)
	if claims, ok := c.app.Sessions.Claims(role); ok && claims.ExpiresAt != nil {
		fmt.Fprintf(c.out, "token expires %s\n", claims.ExpiresAt.Time.Format("2006-01-02 15:04"))
	}
	return nil
}

func (c *cli) createAccount(ctx context.Context, args []string) error {
	fs := newFlagSet("create-account")
	req := types.AccountRequest{}
	fs.StringVar(&req.Name, "name", "", "display name")
	fs.StringVar(&req.Email, "email", "", "account email")
	fs.StringVar(&req.Password, "password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := c.app.Client.CreateAccount(ctx, req); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "account created for %s\n", req.Email)
	return nil
}

// listProducts signs out the role whose token was sent when the API rejects it.
func (c *cli) listProducts(ctx context.Context) ([]types.Product, error) {
	role := c.app.Sessions.CurrentRole()
	products, err := c.app.Client.ListProducts(ctx)
	if err != nil {
		if expireErr := c.app.Sessions.Expire(ctx, role, err); expireErr != nil {
			c.app.Logger.Error(ctx, "session.expire_failed", expireErr)
		}
		return nil, err
	}
	return products, nil
}

func (c *cli) products(ctx context.Context) error {
	products, err := c.listProducts(ctx)
	if err != nil {
		return err
	}
	c.printProducts(products)
	return nil
}

func (c *cli) printProducts(products []types.Product) {
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE\tSTOCK\tFEATURED")
	for _, p := range products {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%t\n", p.ID, p.Name, p.Price.StringFixed(2), p.Stock, p.Featured)
	}
	tw.Flush()
}

func (c *cli) cart(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return c.showCart()
	}
	sub, rest := args[0], args[1:]
	switch sub {
	case "show":
		return c.showCart()
	case "add":
		if len(rest) < 1 || len(rest) > 2 {
			return errUsage
		}
		id, err := types.ParseID(rest[0])
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id")
		}
		qty := 1
		if len(rest) == 2 {
			if qty, err = strconv.Atoi(rest[1]); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "quantity must be a whole number")
			}
		}
		product, err := c.findProduct(ctx, id)
		if err != nil {
			return err
		}
		c.app.Cart.AddItem(*product, qty)
	case "set":
		if len(rest) != 2 {
			return errUsage
		}
		id, err := types.ParseID(rest[0])
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id")
		}
		qty, err := strconv.Atoi(rest[1])
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "quantity must be a whole number")
		}
		c.app.Cart.SetQuantity(id, qty)
	case "remove":
		if len(rest) != 1 {
			return errUsage
		}
		id, err := types.ParseID(rest[0])
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id")
		}
		c.app.Cart.RemoveItem(id)
	case "clear":
		c.app.Cart.Clear()
	default:
		return errUsage
	}
	if err := c.app.SaveCart(ctx); err != nil {
		return err
	}
	return c.showCart()
}

func (c *cli) findProduct(ctx context.Context, id types.ID) (*types.Product, error) {
	products, err := c.listProducts(ctx)
	if err != nil {
		return nil, err
	}
	for i := range products {
		if products[i].ID == id {
			return &products[i], nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s not found", id))
}

func (c *cli) showCart() error {
	lines := c.app.Cart.Lines()
	if len(lines) == 0 {
		fmt.Fprintln(c.out, "cart is empty")
		return nil
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tQTY\tUNIT\tSUBTOTAL")
	for _, l := range lines {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", l.ProductID, l.Name, l.Quantity, l.UnitPrice.StringFixed(2), l.Subtotal().StringFixed(2))
	}
	fmt.Fprintf(tw, "\t\t%d\t\t%s\n", c.app.Cart.Count(), c.app.Cart.Total().StringFixed(2))
	return tw.Flush()
}

func (c *cli) checkout(ctx context.Context, args []string) error {
	fs := newFlagSet("checkout")
	name := fs.String("name", "", "customer name on the order")
	if err := fs.Parse(args); err != nil {
		return err
	}
	order, err := c.app.Checkout.Submit(ctx, *name)
	if err != nil {
		return err
	}
	if err := c.app.SaveCart(ctx); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "order %s placed for %s, total %s (%s)\n", order.ID, order.CustomerName, order.Total.StringFixed(2), order.Status)
	return nil
}

func (c *cli) route(args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	target, allowed := c.app.Guard.Resolve(args[0])
	if allowed {
		fmt.Fprintln(c.out, target)
		return nil
	}
	fmt.Fprintf(c.out, "%s (redirected)\n", target)
	return nil
}

func (c *cli) admin(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	wf, err := c.app.NewAdminWorkflow()
	if err != nil {
		return err
	}
	defer wf.Dispose()

	sub, rest := args[0], args[1:]
	switch sub {
	case "dashboard":
		if err := wf.Mount(ctx); err != nil && pkgerrors.IsAuth(err) {
			return err
		}
	case "approve":
		if len(rest) != 1 {
			return errUsage
		}
		id, err := types.ParseID(rest[0])
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id")
		}
		if err := wf.ApproveAndRefresh(ctx, id); err != nil {
			return err
		}
	case "feature":
		if len(rest) != 1 {
			return errUsage
		}
		id, err := types.ParseID(rest[0])
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id")
		}
		if err := wf.FeatureAndRefresh(ctx, id); err != nil {
			return err
		}
	case "create-product":
		if err := c.fillForm(wf, rest); err != nil {
			return err
		}
		product, err := wf.SubmitNewProduct(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "created product %s\n", product.ID)
	default:
		return errUsage
	}
	c.printDashboard(wf.Snapshot())
	return nil
}

func (c *cli) fillForm(wf *admin.Workflow, args []string) error {
	fs := newFlagSet("create-product")
	values := map[string]*string{
		admin.FieldName:  fs.String(admin.FieldName, "", "product name"),
		admin.FieldPrice: fs.String(admin.FieldPrice, "", "unit price"),
		admin.FieldStock: fs.String(admin.FieldStock, "0", "units in stock"),
		admin.FieldImage: fs.String(admin.FieldImage, "", "image url"),
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	for field, value := range values {
		if err := wf.SetField(field, *value); err != nil {
			return err
		}
	}
	return nil
}

func (c *cli) printDashboard(snap admin.Snapshot) {
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ORDER\tCUSTOMER\tTOTAL\tSTATUS")
	for _, o := range snap.Orders {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", o.ID, o.CustomerName, o.Total.StringFixed(2), o.Status)
	}
	tw.Flush()
	if snap.OrdersError != "" {
		fmt.Fprintf(c.out, "orders unavailable: %s\n", snap.OrdersError)
	}
	fmt.Fprintln(c.out)
	c.printProducts(snap.Products)
	if snap.ProductsError != "" {
		fmt.Fprintf(c.out, "products unavailable: %s\n", snap.ProductsError)
	}
}
