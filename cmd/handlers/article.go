package handlers

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"seoforge/internal/config"
	"seoforge/internal/core"
)

// NewArticleCmd creates the article command group
func NewArticleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "article",
		Short: "Manage products and article requests",
	}
	cmd.AddCommand(newArticleAddCmd())
	cmd.AddCommand(newArticlePublishCmd())
	return cmd
}

func newArticleAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <file.yaml>",
		Short: "Add a product and its article requests from a YAML file",
		Long: `Add a product and its article requests from a YAML file.

Keys follow the JSON field names of the stored records:

  product:
    id: acme
    name: Acme PM
    url: https://acme.example
    language_code: en
    country_code: US
    style:
      tone: friendly
      internal_links: 3
  articles:
    - id: art-1
      keyword: project management software
      content_type: guide
      guide_subtype: comparison
      target_length: long`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			f, err := parseFixture(data)
			if err != nil {
				return err
			}

			store, err := openStore(config.Get())
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := cmd.Context()
			if f.Product != nil {
				if err := store.CreateProduct(ctx, *f.Product); err != nil {
					return err
				}
				fmt.Println(successStyle.Render("Added product " + f.Product.ID))
			}
			rows := make([][]string, 0, len(f.Articles))
			for _, a := range f.Articles {
				if err := store.CreateArticle(ctx, a); err != nil {
					return err
				}
				rows = append(rows, []string{a.ID, a.Keyword, string(a.ContentType), a.Subtype()})
			}
			if len(rows) > 0 {
				fmt.Println(renderTable([]string{"ID", "Keyword", "Type", "Subtype"}, rows, nil))
			}
			return nil
		},
	}
}

func newArticlePublishCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "publish <article-id> <url>",
		Short: "Record where an article was published",
		Long: `Record the public URL of an article. Published articles become
internal-link candidates for later articles of the same product.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(config.Get())
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.RecordPublication(cmd.Context(), args[0], args[1], time.Now()); err != nil {
				return err
			}
			fmt.Println(successStyle.Render(fmt.Sprintf("Article %s published at %s", args[0], args[1])))
			return nil
		},
	}
}

type fixture struct {
	Product  *core.ProductConfig   `json:"product"`
	Articles []core.ArticleRequest `json:"articles"`
}

// parseFixture decodes YAML keyed like the JSON records. Articles inherit
// the product id and are validated before anything is written.
func parseFixture(data []byte) (fixture, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fixture{}, fmt.Errorf("invalid YAML: %w", err)
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		return fixture{}, fmt.Errorf("unsupported YAML value: %w", err)
	}
	var f fixture
	if err := json.Unmarshal(encoded, &f); err != nil {
		return fixture{}, fmt.Errorf("invalid fixture: %w", err)
	}

	if f.Product != nil && f.Product.ID == "" {
		return fixture{}, fmt.Errorf("product id is required")
	}
	for i := range f.Articles {
		a := &f.Articles[i]
		if a.ProductID == "" && f.Product != nil {
			a.ProductID = f.Product.ID
		}
		if a.ID == "" || a.ProductID == "" {
			return fixture{}, fmt.Errorf("article %d: id and product_id are required", i+1)
		}
		if err := a.Validate(); err != nil {
			return fixture{}, fmt.Errorf("article %s: %w", a.ID, err)
		}
	}
	return f, nil
}
