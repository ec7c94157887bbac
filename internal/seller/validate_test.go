package seller

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidSellerName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"TECKKIN", true},
		{"Amazon.com.br", true},
		{"GPC Image", true},
		{"Loja do Zé", true},
		{"(123)", false},
		{"1234", false},
		{"4,5 estrelas", false},
		{"4,5", false},
		{"(1.234)", false},
		{"1,2 mil", false},
		{"(2,3 mil)", false},
		{"12.5", false},
		{"", false},
		{"   ", false},
		{"X", false},
		{"Frete GRÁTIS", false},
		{"Entrega amanhã", false},
		{"Disponível em estoque", false},
		{"1.532 avaliações", false},
		{"(Loja", false},
		{"Loja)", false},
		{"Mais vendido", false},
		{"Escolha da Amazon", false},
		{"Amazon's Choice", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidSellerName(tt.name))
		})
	}
}

func TestClean(t *testing.T) {
	assert.Equal(t, "TECKKIN", clean("  TECKKIN   e entregue por Amazon"))
	assert.Equal(t, "Loja Azul", clean("Loja\n  Azul."))
	assert.Equal(t, Canonical, clean("Amazon"))
	assert.Equal(t, Canonical, clean("amazon.com.br"))
	assert.Equal(t, "LOJA AZUL", clean("LOJA AZUL E ENTREGUE POR AMAZON"))
	assert.Equal(t, "İNK Store", clean("İNK Store e entregue por Amazon"))
	assert.Equal(t, "Loja İstanbul", clean("Loja İstanbul | Enviado pela Amazon"))
}
