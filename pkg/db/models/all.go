package models

// All lists every persisted model in dependency order. Tests and the dev
// sqlite mode hand it to AutoMigrate; Postgres uses the SQL migrations.
func All() []any {
	return []any{
		&Customer{},
		&CustomerGroup{},
		&CustomerGroupMember{},
		&Product{},
		&ProductVariant{},
		&ProductCategory{},
		&TaxRate{},
		&ShippingMethod{},
		&PaymentMethod{},
		&Coupon{},
		&CartOffer{},
		&CartOfferProduct{},
		&CartOfferUsage{},
		&Cart{},
		&CartItem{},
		&Order{},
		&OrderItem{},
		&OrderAddress{},
		&OrderHistory{},
		&CouponUsage{},
		&OrderNotification{},
		&OutboxEvent{},
		&OutboxDLQ{},
	}
}
