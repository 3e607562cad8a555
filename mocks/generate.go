package mocks

//go:generate mockgen -destination=./mock_trade_source.go -package=mocks github.com/rxtech-lab/argo-analytics/internal/source TradeSource
//go:generate mockgen -destination=./mock_snapshot_sink.go -package=mocks github.com/rxtech-lab/argo-analytics/internal/analytics/session SnapshotSink
