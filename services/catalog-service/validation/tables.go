package validation

import "regexp"

var imageURL = Rule{Tag: "http_url", TagMsg: "Image must be a valid http(s) URL"}

func image(field, label string, required bool) Rule {
	r := imageURL
	r.Field, r.Label, r.Required = field, label, required
	r.TagMsg = label + " must be a valid http(s) URL"
	return r
}

var objectIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)

func ref(field, label string, required bool) Rule {
	return Rule{
		Field: field, Label: label, Required: required,
		Pattern: objectIDPattern, PatternMsg: "Invalid " + field + " id",
	}
}

var BrandRules = Table{
	{Field: "brandName", Label: "Brand name", Required: true, MinLen: 2, MaxLen: 100},
	{Field: "brandDescription", Label: "Brand description", Required: true, MinLen: 10, MaxLen: 500},
	image("brandImage", "Brand image", true),
}

var CategoryRules = Table{
	{Field: "categoryName", Label: "Category name", Required: true, MinLen: 2, MaxLen: 100},
	{Field: "categoryDescription", Label: "Category description", Required: true, MinLen: 10, MaxLen: 500},
	image("categoryImage", "Category image", true),
}

var ComponentRules = Table{
	{Field: "componentName", Label: "Component name", Required: true, MinLen: 2, MaxLen: 100},
	{Field: "filterLabels", Label: "Filter label", Required: true, Items: true, MaxLen: 50},
}

var slugRule = Rule{
	Field: "slug", Label: "Slug", Required: true, MaxLen: SlugMaxLen,
	Pattern: SlugPattern, PatternMsg: SlugPatternMsg,
}

var ComponentItemRules = Table{
	slugRule,
	ref("component", "Component", true),
	ref("brand", "Brand", false),
	{Field: "filterValues", Label: "Filter value", Required: true},
	{Field: "model", Label: "Model", Required: true, MinLen: 1, MaxLen: 100},
	{Field: "unitPrice", Label: "Unit price", Required: true, Min: Float(0)},
	{Field: "availability", Label: "Availability", Required: true, OneOf: []string{"InStock", "OutOfStock", "PreOrder"}},
	{Field: "description", Label: "Description", Required: true, MinLen: 10, MaxLen: 2000},
	{Field: "specifications", Label: "Specification"},
	image("mainImage", "Main image", true),
	{Field: "subImages", Label: "Sub image", Items: true, Tag: "http_url", TagMsg: "must be a valid http(s) URL"},
}

var AccessoryRules = Table{
	slugRule,
	{Field: "name", Label: "Name", Required: true, MinLen: 2, MaxLen: 150},
	ref("brand", "Brand", false),
	ref("category", "Category", false),
	{Field: "description", Label: "Description", Required: true, MinLen: 10, MaxLen: 1500},
	{Field: "offerPrice", Label: "Offer price", Required: true, Min: Float(0)},
	{Field: "oldPrice", Label: "Old price", Min: Float(0)},
	image("mainImage", "Main image", true),
	{Field: "subImages", Label: "Sub image", Items: true, Tag: "http_url", TagMsg: "must be a valid http(s) URL"},
}
