package service

import (
	"fmt"
	"html"
	"strconv"

	"shopbot/pkg/domain/model"
)

// Callback data understood by the assistant.
const (
	ActionRoleOrder      = "role_order"
	ActionRoleAdmin      = "role_admin"
	ActionAddProduct     = "add_product"
	ActionDeleteProduct  = "delete_product"
	ActionAddEmployee    = "add_employee"
	ActionRemoveEmployee = "remove_employee"
	ActionAdminEmployee  = "role_admin_employee"
	ActionSellerEmployee = "role_seller_employee"

	PrefixOrder            = "order_"
	PrefixPublish          = "publish_"
	PrefixDeleteProduct    = "del_product_"
	PrefixDeleteEmployee   = "del_employee_"
	PrefixStatusProcessing = "status_processing_"
	PrefixStatusSold       = "status_sold_"
)

// NoPhotoText is what an operator types to skip the photo step.
const NoPhotoText = "без фото"

func FormatPrice(price float64) string {
	return strconv.FormatFloat(price, 'f', -1, 64)
}

// RenderAnnouncement is the product card posted to the products channel.
func RenderAnnouncement(p model.Product, currency string) string {
	return fmt.Sprintf("<b>Название:</b> %s\n<b>Цена:</b> %s %s\n<b>Описание:</b> %s",
		html.EscapeString(p.Name),
		FormatPrice(p.Price),
		currency,
		html.EscapeString(p.Description),
	)
}

func RenderOrderLog(o model.Order) string {
	return fmt.Sprintf("Заказ #%d | Товар: %s | Клиент: %s | Статус: %s",
		o.ID, o.ProductName, o.BuyerName, o.Status.Label())
}

func renderOrderNotice(o model.Order, currency string) string {
	return fmt.Sprintf("Новый заказ #%d: Товар: %s, Цена: %s %s, Клиент: %s",
		o.ID, html.EscapeString(o.ProductName), FormatPrice(o.ProductPrice), currency, html.EscapeString(o.BuyerName))
}

func orderKeyboard(o model.Order) model.Keyboard {
	return model.Keyboard{
		{{Text: "Взять в обработку", Data: PrefixStatusProcessing + strconv.Itoa(o.ID)}},
		{{Text: "Отметить как продан", Data: PrefixStatusSold + strconv.Itoa(o.ID)}},
		{{Text: "Связаться с клиентом", URL: "tg://user?id=" + strconv.FormatInt(o.BuyerID, 10)}},
	}
}

func announcementKeyboard(p model.Product) model.Keyboard {
	return model.Keyboard{{{Text: "Заказать", Data: PrefixOrder + p.ID}}}
}

func draftKeyboard(p model.Product) model.Keyboard {
	return model.Keyboard{
		{{Text: "Опубликовать", Data: PrefixPublish + p.ID}},
		{{Text: "Редактировать", Data: ActionAddProduct}},
	}
}
