package mocks

//go:generate mockgen -destination=./mock_datasource.go -package=mocks github.com/rxtech-lab/argo-screener/internal/backtest/engine/engine_v1/datasource PriceSource
//go:generate mockgen -destination=./mock_cache.go -package=mocks github.com/rxtech-lab/argo-screener/internal/backtest/engine/engine_v1/cache ResultCache
