package cli

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/SamuelMMedeiros/BV-Celular-sub002/internal/model"
	"github.com/SamuelMMedeiros/BV-Celular-sub002/internal/payload"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"
)

// Product flags and the form fields they set
var productFlagFields = map[string]string{
	"name":        payload.FieldName,
	"description": payload.FieldDescription,
	"brand":       payload.FieldBrand,
	"category":    payload.FieldCategory,
	"price":       payload.FieldPrice,
	"promo":       payload.FieldPromotionalPrice,
	"stock":       payload.FieldStock,
	"active":      payload.FieldActive,
	"featured":    payload.FieldFeatured,
}

func newProductsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "products",
		Aliases: []string{"product", "p"},
		Short:   "List and edit catalog products",
	}
	cmd.AddCommand(
		newProductsListCmd(opts),
		newProductsGetCmd(opts),
		newProductsCreateCmd(opts),
		newProductsUpdateCmd(opts),
	)
	return cmd
}

func newProductsListCmd(opts *options) *cobra.Command {
	var asJSON bool
	filterFlags := []string{"q", "brand", "category", "store_id", "is_active", "featured", "min_price", "max_price", "limit", "offset"}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List products",
		Long:  "Lists products. Filter flags are sent to the API unchanged.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filters := url.Values{}
			for _, name := range filterFlags {
				if cmd.Flags().Changed(name) {
					v, _ := cmd.Flags().GetString(name)
					filters.Set(name, v)
				}
			}

			list, err := opts.client().ListProducts(cmd.Context(), filters)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), list)
			}
			printProducts(cmd.OutOrStdout(), list.Products)
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d of %d products\n", len(list.Products), list.Total)
			return nil
		},
	}

	for _, name := range filterFlags {
		cmd.Flags().String(name, "", "filter by "+strings.ReplaceAll(name, "_", " "))
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw JSON response")
	return cmd
}

func newProductsGetCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show one product as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := cast.ToUintE(args[0])
			if err != nil {
				return fmt.Errorf("invalid product id %q", args[0])
			}
			product, err := opts.client().GetProduct(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), product)
		},
	}
}

func newProductsCreateCmd(opts *options) *cobra.Command {
	var stores []uint
	var images []string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a product with its images",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.requireToken(); err != nil {
				return err
			}

			values := map[string][]string{}
			setChangedFields(cmd, values)
			values[payload.FieldStoreIDs] = idStrings(stores)

			p, err := payload.ParseInsert(&multipart.Form{Value: values})
			if err != nil {
				return err
			}
			if p.Images, err = loadImages(images); err != nil {
				return err
			}

			product, err := opts.client().CreateProduct(cmd.Context(), opts.token, p)
			if err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Created product %d (%s) with %d image(s)", product.ID, product.Name, len(product.Images))
			return nil
		},
	}

	addProductFlags(cmd)
	cmd.Flags().UintSliceVar(&stores, "store", nil, "store id (repeatable)")
	cmd.Flags().StringArrayVar(&images, "image", nil, "image file to upload (repeatable)")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("price")
	return cmd
}

func newProductsUpdateCmd(opts *options) *cobra.Command {
	var stores []uint
	var images []string
	var deleteImages []uint

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change a product",
		Long:  "Changes the given fields of a product. Fields and stores not passed keep their current values.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.requireToken(); err != nil {
				return err
			}
			id, err := cast.ToUintE(args[0])
			if err != nil {
				return fmt.Errorf("invalid product id %q", args[0])
			}

			client := opts.client()
			current, err := client.GetProduct(cmd.Context(), id)
			if err != nil {
				return err
			}

			values := valuesFromProduct(*current)
			setChangedFields(cmd, values)
			if cmd.Flags().Changed("store") {
				values[payload.FieldStoreIDs] = idStrings(stores)
			}
			values[payload.FieldDeleteImageIDs] = idStrings(deleteImages)

			p, err := payload.ParseUpdate(&multipart.Form{Value: values}, current.Images)
			if err != nil {
				return err
			}
			if p.NewImages, err = loadImages(images); err != nil {
				return err
			}

			product, err := client.UpdateProduct(cmd.Context(), opts.token, id, p)
			if err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Updated product %d (%s), %d image(s)", product.ID, product.Name, len(product.Images))
			return nil
		},
	}

	addProductFlags(cmd)
	cmd.Flags().UintSliceVar(&stores, "store", nil, "replace the stores (repeatable)")
	cmd.Flags().StringArrayVar(&images, "image", nil, "image file to add (repeatable)")
	cmd.Flags().UintSliceVar(&deleteImages, "delete-image", nil, "id of an image to remove (repeatable)")
	return cmd
}

func addProductFlags(cmd *cobra.Command) {
	cmd.Flags().String("name", "", "product name")
	cmd.Flags().String("description", "", "product description")
	cmd.Flags().String("brand", "", "brand")
	cmd.Flags().String("category", "", "category")
	cmd.Flags().String("price", "", "price, e.g. 1999.90 or 1999,90")
	cmd.Flags().String("promo", "", "promotional price (empty to clear)")
	cmd.Flags().String("stock", "", "units in stock")
	cmd.Flags().String("active", "", "show the product in the storefront (true/false)")
	cmd.Flags().String("featured", "", "feature the product on the home page (true/false)")
}

// setChangedFields copies the product flags the user passed into values
func setChangedFields(cmd *cobra.Command, values map[string][]string) {
	for flag, field := range productFlagFields {
		if !cmd.Flags().Changed(flag) {
			continue
		}
		v, _ := cmd.Flags().GetString(flag)
		if v == "" {
			delete(values, field)
			continue
		}
		values[field] = []string{v}
	}
}

func valuesFromProduct(p model.Product) map[string][]string {
	values := map[string][]string{
		payload.FieldName:        {p.Name},
		payload.FieldDescription: {p.Description},
		payload.FieldBrand:       {p.Brand},
		payload.FieldCategory:    {p.Category},
		payload.FieldPrice:       {p.Price.StringFixed(2)},
		payload.FieldStock:       {strconv.Itoa(p.Stock)},
		payload.FieldActive:      {strconv.FormatBool(p.IsActive)},
		payload.FieldFeatured:    {strconv.FormatBool(p.Featured)},
	}
	if p.PromotionalPrice.Valid {
		values[payload.FieldPromotionalPrice] = []string{p.PromotionalPrice.Decimal.StringFixed(2)}
	}
	ids := make([]uint, 0, len(p.Stores))
	for _, s := range p.Stores {
		ids = append(ids, s.ID)
	}
	values[payload.FieldStoreIDs] = idStrings(ids)
	return values
}

func idStrings(ids []uint) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, strconv.FormatUint(uint64(id), 10))
	}
	return out
}

func loadImages(paths []string) ([]payload.ImageFile, error) {
	images := make([]payload.ImageFile, 0, len(paths))
	for _, path := range paths {
		img, err := payload.FromPath(path)
		if err != nil {
			return nil, fmt.Errorf("image %s: %w", path, err)
		}
		images = append(images, img)
	}
	return images, nil
}

func printProducts(w io.Writer, products []model.Product) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tBRAND\tPRICE\tPROMO\tSTOCK\tACTIVE\tSTORES")
	for _, p := range products {
		promo := "-"
		if p.PromotionalPrice.Valid {
			promo = p.PromotionalPrice.Decimal.StringFixed(2)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\t%t\t%d\n",
			p.ID, p.Name, p.Brand, p.Price.StringFixed(2), promo, p.Stock, p.IsActive, len(p.Stores))
	}
	tw.Flush()
}
