package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Счетчики переходов жизненного цикла обменов
var (
	SwapsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rewear_swaps_created_total",
		Help: "Количество созданных предложений обмена по типу",
	}, []string{"swap_type"})

	SwapTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rewear_swap_transitions_total",
		Help: "Количество переходов обменов по итоговому статусу",
	}, []string{"status"})

	SwapRatings = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rewear_swap_ratings_total",
		Help: "Количество оценок завершённых обменов",
	})

	PointsTransferred = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rewear_points_transferred_total",
		Help: "Суммарное количество переведённых баллов",
	})

	ItemsModerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rewear_items_moderated_total",
		Help: "Количество решений модерации по исходу",
	}, []string{"decision"})
)
