/*
Package schema defines the field and module descriptors shared by every
record partition, built-in or user defined.

A partition is an ordered list of records described by a ModuleSchema. The
four built-in partitions (clients, orders, invoices, stock) have fixed
schemas declared in this package. User-defined modules get their schema from
the field-spec mini-language parsed by package fieldspec:

	vin:text:VIN:true, marka:text:Marka, status:select[Aktywny|W serwisie]:Status

# Field Types

The field type set is closed:

  - text:     single line of text
  - number:   numeric value, blank allowed
  - date:     calendar date (YYYY-MM-DD)
  - textarea: multi-line text
  - select:   one value out of Options
  - checkbox: boolean

Every descriptor carries enough metadata (type, options, required) for a
presentation layer to build an equivalent input control.

# Slugs and Keys

Module slugs and field keys are derived from free text by Slugify and
NormalizeKey. Both lowercase the input, collapse runs of characters other
than letters and digits into a single separator and cap the length.
*/
package schema
