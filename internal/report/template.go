package report

const reportTemplate = `<!DOCTYPE html>
<html lang="pt-BR">
<head>
<meta charset="utf-8">
<title>Relatório de Detecção de Pirataria</title>
<style>
body { font-family: Arial, sans-serif; margin: 20px; background: #f5f5f5; }
.header { background: #232f3e; color: #fff; padding: 20px; border-radius: 5px; }
.stats { display: flex; gap: 20px; margin: 20px 0; }
.stat-box { background: #fff; padding: 20px; border-radius: 5px; flex: 1; text-align: center; }
.stat-box h3 { margin: 0; font-size: 2em; }
.high { color: #c0392b; } .medium { color: #e67e22; } .low { color: #27ae60; }
table { width: 100%; border-collapse: collapse; background: #fff; margin-bottom: 30px; }
th, td { padding: 8px 10px; border-bottom: 1px solid #ddd; text-align: left; }
th { background: #37475a; color: #fff; }
tr.risk-high { background: #fdecea; } tr.risk-medium { background: #fff4e5; } tr.risk-low { background: #edf7ed; }
</style>
</head>
<body>
<div class="header">
<h1>Relatório de Detecção de Pirataria</h1>
<p>Gerado em {{.GeneratedAt}}</p>
</div>

<div class="stats">
<div class="stat-box"><h3>{{.Total}}</h3><p>Total de produtos</p></div>
<div class="stat-box high"><h3>{{.High}}</h3><p>Alto risco</p></div>
<div class="stat-box medium"><h3>{{.Medium}}</h3><p>Médio risco</p></div>
<div class="stat-box low"><h3>{{.Low}}</h3><p>Baixo risco</p></div>
</div>

<h2>Produtos de alto risco</h2>
<table id="high-risk">
<tr><th>Título</th><th>Preço</th><th>Vendedor</th><th>Predição</th><th>Score de risco</th><th>Link</th></tr>
{{range .HighRisk}}<tr class="{{.RiskClass}}"><td>{{.Title}}</td><td>{{.Price}}</td><td>{{.Seller}}</td><td>{{.Prediction}}</td><td>{{.RiskScore}}</td><td>{{if .URL}}<a href="{{.URL}}" target="_blank" rel="noopener">Ver produto</a>{{else}}N/A{{end}}</td></tr>
{{else}}<tr><td colspan="6">Nenhum produto de alto risco</td></tr>
{{end}}</table>

<h2>Distribuição das predições</h2>
<table id="predictions">
<tr><th>Predição</th><th>Quantidade</th><th>Percentual</th></tr>
{{range .Predictions}}<tr><td>{{.Label}}</td><td>{{.Count}}</td><td>{{.Percent}}</td></tr>
{{end}}</table>

<h2>Todos os produtos</h2>
<table id="all-products">
<tr><th>Título</th><th>Termo</th><th>Preço</th><th>Vendedor</th><th>Predição</th><th>Confiança</th><th>Nível de risco</th><th>Score</th></tr>
{{range .Records}}<tr class="{{.RiskClass}}"><td>{{.Title}}</td><td>{{.SearchTerm}}</td><td>{{.Price}}</td><td>{{.Seller}}</td><td>{{.Prediction}}</td><td>{{.Confidence}}</td><td>{{.RiskLevel}}</td><td>{{.RiskScore}}</td></tr>
{{end}}</table>
</body>
</html>
`
