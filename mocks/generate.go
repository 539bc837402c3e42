package mocks

//go:generate mockgen -destination=./mock_repository.go -package=mocks SignalScan/internal/domain/repository IndicatorEngine,MarketData,Metrics,Notifier,Store
