package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDetailPage(t *testing.T) {
	parser := NewDetailParser()

	tests := []struct {
		name        string
		html        string
		title       string
		price       float64
		hasPrice    bool
		seller      string
		rating      float64
		reviewCount int
	}{
		{
			name: "buy box with seller profile",
			html: `<html><body>
				<span id="productTitle">  Cartucho HP 667XL Preto Original </span>
				<span id="acrPopover" title="4,6 de 5 estrelas"></span>
				<span id="acrCustomerReviewText">2.318 avaliações de clientes</span>
				<div id="corePrice_feature_div"><span class="a-price"><span class="a-offscreen">R$ 129,90</span></span></div>
				<div id="tabular-buybox">Vendido por <a id="sellerProfileTriggerId">HP Store Oficial</a></div>
			</body></html>`,
			title:       "Cartucho HP 667XL Preto Original",
			price:       129.90,
			hasPrice:    true,
			seller:      "HP Store Oficial",
			rating:      4.6,
			reviewCount: 2318,
		},
		{
			name: "merchant info block",
			html: `<html><body>
				<span id="productTitle">Cartucho compatível 664</span>
				<div id="merchant-info">Enviado por Amazon / Vendido por YATUNINK</div>
			</body></html>`,
			title:  "Cartucho compatível 664",
			seller: "YATUNINK",
		},
		{
			name: "operator in body text",
			html: `<html><body>
				<span id="productTitle">Cartucho HP 662</span>
				<p>Este produto é vendido por Amazon.com.br</p>
				<span class="a-price-whole">59,</span>
			</body></html>`,
			title:    "Cartucho HP 662",
			price:    59,
			hasPrice: true,
			seller:   "Amazon.com.br",
		},
		{
			name:  "nothing found",
			html:  `<html><body><p>Página indisponível</p></body></html>`,
			title: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := parser.ParseDetailPage(tt.html)
			require.NoError(t, err)

			assert.Equal(t, tt.title, info.Title)
			assert.Equal(t, tt.seller, info.Seller)

			if tt.hasPrice {
				require.NotNil(t, info.Price)
				assert.InDelta(t, tt.price, *info.Price, 0.001)
			} else {
				assert.Nil(t, info.Price)
			}

			if tt.rating > 0 {
				require.NotNil(t, info.Rating)
				assert.InDelta(t, tt.rating, *info.Rating, 0.001)
			}
			if tt.reviewCount > 0 {
				require.NotNil(t, info.ReviewCount)
				assert.Equal(t, tt.reviewCount, *info.ReviewCount)
			}
		})
	}
}
