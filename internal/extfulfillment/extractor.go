package extfulfillment

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/leomarchetti/offerstack-backend/pkg/enums"
	"github.com/leomarchetti/offerstack-backend/pkg/types"
)

// Extraction is the canonical projection of one platform webhook payload.
// Pointer fields are nil when the payload does not carry the value.
type Extraction struct {
	OrderID         string
	FulfillmentID   *string
	RawStatus       string
	TrackingNumber  *string
	TrackingURL     *string
	OrderedAt       *time.Time
	FulfilledAt     *time.Time
	DeliveredAt     *time.Time
	OrderData       types.JSONMap
	FulfillmentData types.JSONMap
	CustomerData    types.JSONMap
	ItemsData       types.JSONMap
}

// Extractor projects a platform-shaped payload into the canonical form.
// One implementation exists per supported platform.
type Extractor interface {
	Platform() enums.FulfillmentPlatform
	Extract(payload types.JSONMap) (Extraction, error)
}

// NewExtractors returns the full extractor set keyed by platform.
func NewExtractors() map[enums.FulfillmentPlatform]Extractor {
	extractors := map[enums.FulfillmentPlatform]Extractor{}
	for _, e := range []Extractor{
		shopifyExtractor{},
		etsyExtractor{},
		clickfunnelsExtractor{},
		woocommerceExtractor{},
		amazonExtractor{},
		customExtractor{},
	} {
		extractors[e.Platform()] = e
	}
	return extractors
}

type shopifyExtractor struct{}

func (shopifyExtractor) Platform() enums.FulfillmentPlatform { return enums.PlatformShopify }

func (shopifyExtractor) Extract(payload types.JSONMap) (Extraction, error) {
	orderID := digString(payload, "id", "order_id", "order_number")
	if orderID == "" {
		return Extraction{}, fmt.Errorf("shopify payload missing order id")
	}
	return Extraction{
		OrderID:         orderID,
		FulfillmentID:   digStringPtr(payload, "fulfillments.0.id", "fulfillment.id"),
		RawStatus:       digString(payload, "fulfillment_status", "fulfillments.0.status", "status"),
		TrackingNumber:  digStringPtr(payload, "fulfillments.0.tracking_number", "tracking_number"),
		TrackingURL:     digStringPtr(payload, "fulfillments.0.tracking_url", "tracking_url"),
		OrderedAt:       digTime(payload, "created_at", "processed_at"),
		FulfilledAt:     digTime(payload, "fulfillments.0.created_at", "closed_at"),
		DeliveredAt:     digTime(payload, "fulfillments.0.delivered_at", "delivered_at"),
		OrderData:       summaryData(payload, "id", "order_number", "name", "total_price", "currency", "financial_status"),
		FulfillmentData: digMap(payload, "fulfillments.0", "fulfillment"),
		CustomerData:    digMap(payload, "customer"),
		ItemsData:       listData(payload, "line_items"),
	}, nil
}

type etsyExtractor struct{}

func (etsyExtractor) Platform() enums.FulfillmentPlatform { return enums.PlatformEtsy }

func (etsyExtractor) Extract(payload types.JSONMap) (Extraction, error) {
	orderID := digString(payload, "receipt_id", "receipt.receipt_id", "order_id")
	if orderID == "" {
		return Extraction{}, fmt.Errorf("etsy payload missing receipt id")
	}
	return Extraction{
		OrderID:         orderID,
		FulfillmentID:   digStringPtr(payload, "shipments.0.receipt_shipping_id"),
		RawStatus:       digString(payload, "status", "shipment_status"),
		TrackingNumber:  digStringPtr(payload, "shipments.0.tracking_code", "tracking_code"),
		TrackingURL:     digStringPtr(payload, "shipments.0.tracking_url", "tracking_url"),
		OrderedAt:       digTime(payload, "create_timestamp", "created_timestamp"),
		FulfilledAt:     digTime(payload, "shipments.0.shipment_notification_timestamp", "shipped_timestamp"),
		DeliveredAt:     digTime(payload, "shipments.0.mail_delivery_timestamp"),
		OrderData:       summaryData(payload, "receipt_id", "grandtotal", "total_price", "currency_code", "is_paid"),
		FulfillmentData: digMap(payload, "shipments.0"),
		CustomerData:    summaryData(payload, "buyer_user_id", "buyer_email", "name", "formatted_address"),
		ItemsData:       listData(payload, "transactions", "line_items"),
	}, nil
}

type clickfunnelsExtractor struct{}

func (clickfunnelsExtractor) Platform() enums.FulfillmentPlatform { return enums.PlatformClickFunnels }

func (clickfunnelsExtractor) Extract(payload types.JSONMap) (Extraction, error) {
	orderID := digString(payload, "public_id", "order.id", "id")
	if orderID == "" {
		return Extraction{}, fmt.Errorf("clickfunnels payload missing order id")
	}
	return Extraction{
		OrderID:         orderID,
		FulfillmentID:   digStringPtr(payload, "fulfillment.id", "fulfillment_id"),
		RawStatus:       digString(payload, "fulfillment_status", "fulfillment.status", "status"),
		TrackingNumber:  digStringPtr(payload, "fulfillment.tracking_number", "tracking_number"),
		TrackingURL:     digStringPtr(payload, "fulfillment.tracking_url", "tracking_url"),
		OrderedAt:       digTime(payload, "created_at", "order.created_at"),
		FulfilledAt:     digTime(payload, "fulfillment.created_at", "fulfilled_at"),
		DeliveredAt:     digTime(payload, "fulfillment.delivered_at", "delivered_at"),
		OrderData:       summaryData(payload, "public_id", "total_amount", "currency", "payment_status"),
		FulfillmentData: digMap(payload, "fulfillment"),
		CustomerData:    digMap(payload, "contact", "customer"),
		ItemsData:       listData(payload, "line_items", "products"),
	}, nil
}

type woocommerceExtractor struct{}

func (woocommerceExtractor) Platform() enums.FulfillmentPlatform { return enums.PlatformWooCommerce }

func (woocommerceExtractor) Extract(payload types.JSONMap) (Extraction, error) {
	orderID := digString(payload, "id", "order_key", "number")
	if orderID == "" {
		return Extraction{}, fmt.Errorf("woocommerce payload missing order id")
	}
	return Extraction{
		OrderID:         orderID,
		FulfillmentID:   digStringPtr(payload, "shipment_id"),
		RawStatus:       digString(payload, "fulfillment_status", "status"),
		TrackingNumber:  digStringPtr(payload, "tracking_number", "shipping.tracking_number", "meta.tracking_number"),
		TrackingURL:     digStringPtr(payload, "tracking_url", "shipping.tracking_url"),
		OrderedAt:       digTime(payload, "date_created", "date_created_gmt"),
		FulfilledAt:     digTime(payload, "date_completed", "date_completed_gmt"),
		DeliveredAt:     digTime(payload, "date_delivered"),
		OrderData:       summaryData(payload, "id", "number", "total", "currency", "payment_method"),
		FulfillmentData: digMap(payload, "shipping"),
		CustomerData:    digMap(payload, "billing", "customer"),
		ItemsData:       listData(payload, "line_items"),
	}, nil
}

type amazonExtractor struct{}

func (amazonExtractor) Platform() enums.FulfillmentPlatform { return enums.PlatformAmazon }

func (amazonExtractor) Extract(payload types.JSONMap) (Extraction, error) {
	orderID := digString(payload, "AmazonOrderId", "amazon_order_id", "order_id")
	if orderID == "" {
		return Extraction{}, fmt.Errorf("amazon payload missing order id")
	}
	return Extraction{
		OrderID:         orderID,
		FulfillmentID:   digStringPtr(payload, "FulfillmentShipmentId", "shipment_id"),
		RawStatus:       digString(payload, "OrderStatus", "FulfillmentStatus", "status"),
		TrackingNumber:  digStringPtr(payload, "TrackingNumber", "tracking_number"),
		TrackingURL:     digStringPtr(payload, "TrackingURL", "tracking_url"),
		OrderedAt:       digTime(payload, "PurchaseDate", "purchase_date"),
		FulfilledAt:     digTime(payload, "ShipDate", "ship_date"),
		DeliveredAt:     digTime(payload, "EstimatedDeliveryDate", "delivered_at"),
		OrderData:       summaryData(payload, "AmazonOrderId", "OrderTotal", "SalesChannel", "OrderStatus"),
		FulfillmentData: digMap(payload, "FulfillmentData", "fulfillment"),
		CustomerData:    digMap(payload, "BuyerInfo", "customer"),
		ItemsData:       listData(payload, "OrderItems", "items"),
	}, nil
}

type customExtractor struct{}

func (customExtractor) Platform() enums.FulfillmentPlatform { return enums.PlatformCustom }

func (customExtractor) Extract(payload types.JSONMap) (Extraction, error) {
	orderID := digString(payload, "order_id", "external_order_id", "id")
	if orderID == "" {
		return Extraction{}, fmt.Errorf("custom payload missing order id")
	}
	return Extraction{
		OrderID:         orderID,
		FulfillmentID:   digStringPtr(payload, "fulfillment_id"),
		RawStatus:       digString(payload, "status", "fulfillment_status"),
		TrackingNumber:  digStringPtr(payload, "tracking_number"),
		TrackingURL:     digStringPtr(payload, "tracking_url"),
		OrderedAt:       digTime(payload, "created_at", "ordered_at"),
		FulfilledAt:     digTime(payload, "fulfilled_at"),
		DeliveredAt:     digTime(payload, "delivered_at"),
		OrderData:       digMap(payload, "order"),
		FulfillmentData: digMap(payload, "fulfillment"),
		CustomerData:    digMap(payload, "customer"),
		ItemsData:       listData(payload, "items", "line_items"),
	}, nil
}

// dig walks a dotted path through nested maps and lists. Numeric segments
// index into lists.
func dig(payload types.JSONMap, path string) (any, bool) {
	var current any = map[string]any(payload)
	for _, segment := range strings.Split(path, ".") {
		switch node := current.(type) {
		case map[string]any:
			next, ok := node[segment]
			if !ok {
				return nil, false
			}
			current = next
		case types.JSONMap:
			next, ok := node[segment]
			if !ok {
				return nil, false
			}
			current = next
		case []any:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			current = node[idx]
		default:
			return nil, false
		}
	}
	return current, true
}

// digString returns the first path that yields a non-empty scalar, rendered
// as a string.
func digString(payload types.JSONMap, paths ...string) string {
	for _, path := range paths {
		value, ok := dig(payload, path)
		if !ok || value == nil {
			continue
		}
		switch v := value.(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case int:
			return strconv.Itoa(v)
		case int64:
			return strconv.FormatInt(v, 10)
		case bool:
			return strconv.FormatBool(v)
		}
	}
	return ""
}

func digStringPtr(payload types.JSONMap, paths ...string) *string {
	if s := digString(payload, paths...); s != "" {
		return &s
	}
	return nil
}

func digMap(payload types.JSONMap, paths ...string) types.JSONMap {
	for _, path := range paths {
		value, ok := dig(payload, path)
		if !ok {
			continue
		}
		if m, ok := value.(map[string]any); ok && len(m) > 0 {
			return types.JSONMap(m)
		}
	}
	return nil
}

// listData wraps the first list found at the given paths so it can be stored
// in a JSONB object column.
func listData(payload types.JSONMap, paths ...string) types.JSONMap {
	for _, path := range paths {
		value, ok := dig(payload, path)
		if !ok {
			continue
		}
		if list, ok := value.([]any); ok && len(list) > 0 {
			return types.JSONMap{"items": list}
		}
	}
	return nil
}

// summaryData copies the named top-level fields that are present.
func summaryData(payload types.JSONMap, keys ...string) types.JSONMap {
	out := types.JSONMap{}
	for _, key := range keys {
		if value, ok := payload[key]; ok && value != nil {
			out[key] = value
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// timestamp layouts tried in order for non-numeric values.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// digTime returns the first path that parses to a timestamp. Numeric values
// are treated as unix seconds. Unparseable values are skipped, not errors.
func digTime(payload types.JSONMap, paths ...string) *time.Time {
	for _, path := range paths {
		value, ok := dig(payload, path)
		if !ok || value == nil {
			continue
		}
		switch v := value.(type) {
		case float64:
			if v > 0 {
				t := time.Unix(int64(v), 0).UTC()
				return &t
			}
		case string:
			if v == "" {
				continue
			}
			if secs, err := strconv.ParseInt(v, 10, 64); err == nil && secs > 0 {
				t := time.Unix(secs, 0).UTC()
				return &t
			}
			for _, layout := range timeLayouts {
				if t, err := time.Parse(layout, v); err == nil {
					return &t
				}
			}
		}
	}
	return nil
}
