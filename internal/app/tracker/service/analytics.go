package service

import (
	"pricepulse/internal/app/tracker/entity"
)

// ComputeSnapshot вычисляет производные ценовые метрики из истории товара
// history должна быть упорядочена по observed_at по возрастанию
// (так её отдает PriceHistoryRepository)
//
// current_price - цена последней точки
// original_price - цена первой точки: это зафиксированная цена на момент
// начала отслеживания, а НЕ исторический максимум; если цена позже выросла
// выше первой, original остается прежним
// lowest_price - минимум по всей истории
//
// Пустая история дает nil: витрина обязана показать отсутствие данных,
// а не синтетические нули
func ComputeSnapshot(history []entity.PricePoint) *entity.PriceSnapshot {
	if len(history) == 0 {
		return nil
	}

	current := history[len(history)-1].Price
	original := history[0].Price

	lowest := history[0].Price
	for _, point := range history[1:] {
		if point.Price < lowest {
			lowest = point.Price
		}
	}

	// Скидка считается только от снижения относительно первой цены;
	// рост выше original не дает отрицательной скидки
	var discountRate float64
	if original > 0 && current < original {
		discountRate = float64(original-current) / float64(original)
	}

	return &entity.PriceSnapshot{
		CurrentPrice:  current,
		OriginalPrice: original,
		LowestPrice:   lowest,
		DiscountRate:  discountRate,
		IsOnSale:      current < original,
	}
}
