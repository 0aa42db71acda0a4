// Package formatting renders raw catalog records into the fixed
// human-readable blocks handed to the reasoning model. Each travel domain
// has its own section layout; fields missing from a record's payload are
// left out instead of rendered as empty placeholders.
package formatting

import (
	"fmt"
	"strings"

	"github.com/rutopia/productobot/internal/domain"
	"github.com/rutopia/productobot/internal/vectordb"
)

// FormatRecord dispatches to the layout for the record's domain. Unknown
// domains fall back to the experience layout, which carries the most
// generic section set.
func FormatRecord(tag domain.Tag, rec vectordb.Record) string {
	switch tag {
	case domain.TagLodging:
		return FormatLodging(rec)
	case domain.TagTransportation:
		return FormatTransport(rec)
	default:
		return FormatExperience(rec)
	}
}

// FormatResults renders a result set as consecutive blocks separated by a
// blank line, preserving the given order.
func FormatResults(tag domain.Tag, recs []vectordb.Record) string {
	blocks := make([]string, 0, len(recs))
	for _, rec := range recs {
		blocks = append(blocks, FormatRecord(tag, rec))
	}
	return strings.Join(blocks, "\n\n")
}

// FormatExperience renders a tour or activity record.
func FormatExperience(rec vectordb.Record) string {
	full := payload(rec.Payload)
	details := full.sub("serviceDetails")
	descriptions := full.sub("descriptions").sub("english")
	contacts := full.sub("contacts")
	location := full.sub("location")
	availability := full.sub("availability")
	logistics := full.sub("logistics")
	period := full.firstPeriod()

	var b strings.Builder
	b.WriteString("-------------START OF EXPERIENCE-------------------\n\n")

	fmt.Fprintf(&b, "**ID:** %s\n", rec.ID)
	fmt.Fprintf(&b, "**Operator:** %s\n", orNA(details.str("supplierName")))
	fmt.Fprintf(&b, "**Service Code:** %s\n", orNA(details.str("serviceCode")))
	fmt.Fprintf(&b, "**Full Service Description:** %s\n", orNA(details.str("fullServiceDescription")))
	if folder := full.sub("supplierInfo").str("supplierFolder"); folder != "" {
		fmt.Fprintf(&b, "**Supplier Folder:** %s\n", folder)
	}
	b.WriteString("\n")

	if desc := descriptions.str("description"); desc != "" {
		fmt.Fprintf(&b, "## Description (EN)\n%s\n\n", desc)
	}

	b.WriteString("## Basic Info\n")
	writeLocation(&b, details, location)
	if pickup := logistics.str("pickupPoint"); pickup != "" {
		fmt.Fprintf(&b, "**Pickup Point:** %s\n", pickup)
	}
	fmt.Fprintf(&b, "**Includes Transport:** %s\n", yesNo(details.boolVal("includesTransport")))
	fmt.Fprintf(&b, "**Pickup / Drop-off:** %s\n", yesNo(logistics.boolVal("pickup")))
	if parking := logistics.str("parking"); parking != "" {
		fmt.Fprintf(&b, "**Parking:** %s\n", parking)
	}

	writeAvailability(&b, availability, period)

	b.WriteString("\n## Duration & Timing\n")
	fmt.Fprintf(&b, "**Duration:** %s\n", orNA(details.str("duration")))
	if notes := details.str("serviceNotes"); notes != "" {
		fmt.Fprintf(&b, "**Logistics Note:** %s\n", notes)
	}

	writeAgeCapacity(&b, full.sub("ageRestrictions"), details)

	if langs := details.list("availableLanguages"); len(langs) > 0 {
		var named []string
		for _, l := range langs {
			if s, ok := l.(string); ok && s != "" {
				named = append(named, s)
			}
		}
		if len(named) > 0 {
			fmt.Fprintf(&b, "\n## Languages\n%s\n", strings.Join(named, "\n"))
		}
	}

	if inc := full.sub("includes").str("english"); inc != "" {
		fmt.Fprintf(&b, "\n## Includes\n%s\n", inc)
	}

	writePricingTable(&b, full, period)
	writeReservationContacts(&b, contacts)
	writeFinancialInfo(&b, full.sub("financialInfo"))
	writeClassification(&b, full, details)

	b.WriteString("\n---------END OF EXPERIENCE-------------------")
	return b.String()
}

// FormatLodging renders a hotel or property record.
func FormatLodging(rec vectordb.Record) string {
	full := payload(rec.Payload)
	details := full.sub("serviceDetails")
	descriptions := full.sub("descriptions")
	contacts := full.sub("contacts")
	location := full.sub("location")
	availability := full.sub("availability")
	facilities := full.sub("facilities")
	financial := full.sub("financialInfo")
	supplier := full.sub("supplierInfo")
	tariffs := full.sub("tariffs")

	var b strings.Builder
	b.WriteString("-------------START OF LODGING-------------------\n\n")

	fmt.Fprintf(&b, "**ID:** %s\n", rec.ID)
	fmt.Fprintf(&b, "**Hotel/Property:** %s\n", orNA(details.str("supplierName")))
	fmt.Fprintf(&b, "**Room Type:** %s\n", orNA(details.str("fullServiceDescription")))
	fmt.Fprintf(&b, "**Service Code:** %s\n", orNA(details.str("serviceCode")))
	fmt.Fprintf(&b, "**Supplier Code:** %s\n", orNA(details.str("supplierCode")))
	if folder := supplier.str("supplierFolder"); folder != "" {
		fmt.Fprintf(&b, "**Supplier Folder:** %s\n", folder)
	}
	b.WriteString("\n")

	// Description in English first, Spanish as fallback; titles cover
	// records without a prose description.
	wrote := false
	for _, c := range []struct{ key, lang string }{
		{"englishDescription", "English"}, {"spanishDescription", "Spanish"},
	} {
		if desc := descriptions.str(c.key); desc != "" {
			fmt.Fprintf(&b, "## Description (%s)\n%s\n\n", c.lang, desc)
			wrote = true
			break
		}
	}
	if !wrote {
		for _, c := range []struct{ key, lang string }{
			{"englishTitle", "English"}, {"spanishTitle", "Spanish"},
		} {
			if title := descriptions.str(c.key); title != "" {
				fmt.Fprintf(&b, "## Title (%s)\n%s\n\n", c.lang, title)
				break
			}
		}
	}

	b.WriteString("## Location & Property Details\n")
	destName := details.str("destinationName")
	if destName == "" {
		destName = location.str("destinationName")
	}
	locName := details.str("locationName")
	if locName == "" {
		locName = location.str("locationName")
	}
	fmt.Fprintf(&b, "**Destination:** %s", orNA(destName))
	if code := details.str("destinationCode"); code != "" {
		fmt.Fprintf(&b, " (%s)", code)
	}
	fmt.Fprintf(&b, "\n**City/Location:** %s\n", orNA(locName))
	if addr := location.str("address"); addr != "" {
		fmt.Fprintf(&b, "**Address:** %s\n", addr)
	}
	if maps := location.str("googleMapsUrl"); maps != "" {
		fmt.Fprintf(&b, "**Google Maps:** %s\n", maps)
	}

	b.WriteString("\n## Room & Property Info\n")
	roomDesc := details.str("serviceDescription")
	if roomDesc == "" {
		roomDesc = details.str("fullServiceDescription")
	}
	if roomDesc != "" {
		fmt.Fprintf(&b, "**Room Description:** %s\n", roomDesc)
	}
	if rt := details.str("roomType"); rt != "" {
		fmt.Fprintf(&b, "**Room Type:** %s\n", rt)
	}
	if cat := details.str("category"); cat != "" {
		fmt.Fprintf(&b, "**Category:** %s\n", cat)
	}
	if class := details.str("serviceClass"); class != "" {
		fmt.Fprintf(&b, "**Service Class:** %s\n", lodgingClassName(class))
	}
	if stars := details.str("starRating"); stars != "" {
		fmt.Fprintf(&b, "**Star Rating:** %s\n", stars)
	}
	if rooms := facilities.str("numRooms"); rooms != "" {
		fmt.Fprintf(&b, "**Total Rooms in Property:** %s\n", rooms)
	}

	mealPlan := details.str("mealPlan")
	notes := details.str("serviceNotes")
	if mealPlan != "" || notes != "" {
		b.WriteString("\n## Meals & Dining\n")
		if mealPlan != "" {
			fmt.Fprintf(&b, "**Meal Plan:** %s\n", mealPlan)
		}
		if notes != "" && notes != mealPlan {
			fmt.Fprintf(&b, "**Dining Notes:** %s\n", notes)
		}
	}
	if hours := facilities.str("breakfastHours"); hours != "" {
		fmt.Fprintf(&b, "**Breakfast Hours:** %s\n", hours)
	}

	writeFacilities(&b, details, facilities)

	checkIn := facilities.str("checkInTime")
	checkOut := facilities.str("checkOutTime")
	if checkIn != "" || checkOut != "" {
		b.WriteString("\n## Check-in & Check-out\n")
		if checkIn != "" {
			fmt.Fprintf(&b, "**Check-in Time:** %s\n", checkIn)
		}
		if checkOut != "" {
			fmt.Fprintf(&b, "**Check-out Time:** %s\n", checkOut)
		}
	}

	b.WriteString("\n## Availability\n")
	fmt.Fprintf(&b, "**Available Days:** %s\n", availableDays(availability))
	if rt := availability.str("responseTime"); rt != "" {
		fmt.Fprintf(&b, "**Response Time:** %s\n", rt)
	}

	b.WriteString("\n## Pricing Information\n")
	if len(full.list("pricingPeriods")) > 0 {
		b.WriteString("Pricing available - contact for current rates\n")
	} else {
		b.WriteString("Contact property for current rates and availability\n")
	}
	if cur := financial.sub("currencyInfo").str("sellCurrency"); cur != "" {
		fmt.Fprintf(&b, "**Currency:** %s\n", cur)
	}
	if rt := financial.sub("billing").str("rateType"); rt != "" {
		fmt.Fprintf(&b, "**Rate Type:** %s\n", rt)
	}

	b.WriteString("\n## Contact Information\n")
	if c := contacts.str("reservationContactName"); c != "" {
		fmt.Fprintf(&b, "**Reservations Contact:** %s\n", c)
	}
	if email := firstEmail(contacts.str("reservationEmail")); email != "" {
		fmt.Fprintf(&b, "**Reservations Email:** %s\n", email)
	}
	resPhone := normalizePhone(contacts.str("reservationPhone"))
	if resPhone != "" {
		fmt.Fprintf(&b, "**Reservations Phone:** %s\n", resPhone)
	}
	if opsPhone := normalizePhone(contacts.str("operationsPhone")); opsPhone != "" && opsPhone != resPhone {
		fmt.Fprintf(&b, "**Operations Phone:** %s\n", opsPhone)
	}
	if ops := contacts.str("operationsContact"); ops != "" {
		fmt.Fprintf(&b, "**Operations Contact:** %s\n", ops)
	}
	if contacts.str("openWhatsappReservations") != "" || contacts.str("openWhatsappOperations") != "" {
		b.WriteString("**WhatsApp:** Available\n")
	}
	if contacts.str("whatsappGroup") != "" {
		b.WriteString("**WhatsApp Group:** Available\n")
	}

	banking := financial.sub("banking")
	billing := financial.sub("billing")
	b.WriteString("\n## Business Information\n")
	if bank := banking.str("bank"); bank != "" {
		fmt.Fprintf(&b, "**Bank:** %s\n", bank)
	}
	if holder := banking.str("accountHolderName"); holder != "" {
		fmt.Fprintf(&b, "**Account Holder:** %s\n", holder)
	}
	if agreement := billing.str("agreementContract"); agreement != "" {
		fmt.Fprintf(&b, "**Agreement Type:** %s\n", agreement)
	}
	if margin := billing.str("averageMargin"); margin != "" {
		fmt.Fprintf(&b, "**Average Margin:** %s%%\n", margin)
	}

	var status []string
	if supplier.boolVal("inTourplan") {
		status = append(status, "TourPlan integrated")
	}
	if tariffs.boolVal("hasTariffs2025TP") {
		status = append(status, "2025 tariffs available")
	}
	if p := tariffs.str("product2025"); p != "" {
		status = append(status, "2025 Status: "+p)
	}
	if len(status) > 0 {
		b.WriteString("\n## System Status\n")
		for _, s := range status {
			fmt.Fprintf(&b, "• %s\n", s)
		}
	}

	writeClassification(&b, full, details)
	if last := supplier.str("lastUpdate"); last != "" {
		fmt.Fprintf(&b, "**Last Updated:** %s\n", last)
	}

	b.WriteString("\n---------END OF LODGING-------------------")
	return b.String()
}

// FormatTransport renders a transfer, shuttle or rental car record.
func FormatTransport(rec vectordb.Record) string {
	full := payload(rec.Payload)
	details := full.sub("serviceDetails")
	descriptions := full.sub("descriptions").sub("english")
	availability := full.sub("availability")
	logistics := full.sub("logistics")
	period := full.firstPeriod()
	isRentalCar := details.str("serviceTypeCode") == "RC"

	var b strings.Builder
	b.WriteString("-------------START OF TRANSPORT-------------------\n\n")

	fmt.Fprintf(&b, "**ID:** %s\n", rec.ID)
	fmt.Fprintf(&b, "**Operator:** %s\n", orNA(details.str("supplierName")))
	fmt.Fprintf(&b, "**Service Code:** %s\n", orNA(details.str("serviceCode")))
	fmt.Fprintf(&b, "**Full Service Description:** %s\n", orNA(details.str("fullServiceDescription")))
	if folder := full.sub("supplierInfo").str("supplierFolder"); folder != "" {
		fmt.Fprintf(&b, "**Supplier Folder:** %s\n", folder)
	}
	b.WriteString("\n")

	desc := descriptions.str("description")
	if desc == "" {
		desc = descriptions.str("title")
	}
	if desc != "" {
		fmt.Fprintf(&b, "## Description (EN)\n%s\n\n", desc)
	}

	b.WriteString("## Basic Info\n")
	writeLocation(&b, details, full.sub("location"))
	fullDesc := details.str("fullServiceDescription")
	if strings.Contains(fullDesc, "APT") || strings.Contains(strings.ToLower(fullDesc), "airport") ||
		strings.Contains(strings.ToLower(fullDesc), "aeropuerto") {
		b.WriteString("**Service Type:** Airport transfer\n")
	}
	if pickup := logistics.str("pickupPoint"); pickup != "" {
		fmt.Fprintf(&b, "**Pickup Point:** %s\n", pickup)
	}
	fmt.Fprintf(&b, "**Includes Transport:** %s\n", yesNo(details.boolVal("includesTransport")))
	fmt.Fprintf(&b, "**Pickup / Drop-off:** %s\n", yesNo(logistics.boolVal("pickup")))

	if isRentalCar {
		b.WriteString("\n## Car Rental Details\n")
	} else {
		b.WriteString("\n## Transport Details\n")
	}
	if class := transportClassName(details.str("serviceClass")); class != "" && !isRentalCar {
		fmt.Fprintf(&b, "**Service Type:** %s transport\n", class)
	}
	if cap, ok := details.num("maxAdultCapacity"); ok && cap > 0 && cap != 9999 {
		fmt.Fprintf(&b, "**Maximum Capacity:** %d passengers\n", int(cap))
	}
	if notes := details.str("serviceNotes"); notes != "" {
		fmt.Fprintf(&b, "**Vehicle Notes:** %s\n", notes)
	}

	writeAvailability(&b, availability, period)

	b.WriteString("\n## Duration & Timing\n")
	fmt.Fprintf(&b, "**Duration:** %s\n", orNA(details.str("duration")))

	writePricingTable(&b, full, period)
	writeReservationContacts(&b, full.sub("contacts"))
	writeFinancialInfo(&b, full.sub("financialInfo"))
	writeClassification(&b, full, details)

	b.WriteString("\n---------END OF TRANSPORT-------------------")
	return b.String()
}

func writeLocation(b *strings.Builder, details, location payload) {
	locName := orNA(details.str("locationName"))
	destName := details.str("destinationName")
	fmt.Fprintf(b, "**Location:** %s", locName)
	if destName != "" {
		fmt.Fprintf(b, ", %s", destName)
	}
	fmt.Fprintf(b, "\n**Destination:** %s (Code: %s)\n", orNA(destName), orNA(details.str("destinationCode")))
	if locs := location.str("locations"); locs != "" {
		fmt.Fprintf(b, "**Service Location Name:** %s\n", locs)
	}
}

func writeAvailability(b *strings.Builder, availability, period payload) {
	b.WriteString("\n## Availability\n")
	fmt.Fprintf(b, "**Days Available:** %s\n", availableDays(availability))
	if rt := availability.str("responseTime"); rt != "" {
		fmt.Fprintf(b, "**Response Time:** %s\n", rt)
	}
	if len(period) > 0 {
		from := dateOnly(period.str("validFrom"))
		to := dateOnly(period.str("validTo"))
		if from != "" || to != "" {
			fmt.Fprintf(b, "**Valid Dates:** %s to %s\n", orNA(from), orNA(to))
		}
		if status := period.str("rateStatus"); status != "" {
			fmt.Fprintf(b, "**Rate Status:** %s\n", status)
		}
	}
}

func writeAgeCapacity(b *strings.Builder, ages, details payload) {
	b.WriteString("\n## Age & Capacity\n")
	if from, ok := ages.sub("adult").num("from"); ok && from > 0 {
		fmt.Fprintf(b, "**Min Age:** %d+\n", int(from))
	} else {
		b.WriteString("**Min Age:** Not specified\n")
	}
	childFrom, okFrom := ages.sub("child").num("from")
	childTo, okTo := ages.sub("child").num("to")
	if okFrom && okTo {
		fmt.Fprintf(b, "**Child Age Range:** %d-%d\n", int(childFrom), int(childTo))
	}
	fmt.Fprintf(b, "**Children Allowed:** %s\n", yesNo(ages.boolVal("childrenAllowed")))
	fmt.Fprintf(b, "**Infants Allowed:** %s\n", yesNo(ages.boolVal("infantsAllowed")))
	if cap, ok := details.num("maxAdultCapacity"); ok && cap > 0 {
		fmt.Fprintf(b, "**Max Adults per Group:** %d\n", int(cap))
	}
}

func writePricingTable(b *strings.Builder, full, period payload) {
	b.WriteString("\n## Pricing")
	currency := full.sub("financialInfo").sub("currencyInfo").str("sellCurrency")
	if currency != "" {
		fmt.Fprintf(b, " (%s)\n", currency)
	} else {
		b.WriteString("\n")
	}

	variations := period.list("pricingVariations")
	if len(variations) == 0 {
		b.WriteString("\nPricing information not available\n")
		return
	}
	pricing := asPayload(variations[0]).list("pricing")
	if len(pricing) == 0 {
		b.WriteString("\nPricing information not available\n")
		return
	}
	b.WriteString("\n| Group Size | Price per Person |\n| --- | --- |\n")
	for _, item := range pricing {
		p := asPayload(item)
		label := p.str("serviceItem")
		if label == "" {
			continue
		}
		price, _ := p.num("totalPrice")
		priceStr := fmt.Sprintf("$%.2f", price)
		if price == 99999 {
			priceStr += " (possible placeholder)"
		}
		fmt.Fprintf(b, "| %s | %s |\n", label, priceStr)
	}
}

func writeReservationContacts(b *strings.Builder, contacts payload) {
	b.WriteString("\n## Contact Info\n")
	reservations := contacts.sub("reservations")
	if name := strings.Join(strings.Fields(reservations.str("contactName")), " "); name != "" {
		fmt.Fprintf(b, "**Reservations Contact:** %s\n", name)
	}
	if email := firstEmail(reservations.str("email")); email != "" {
		fmt.Fprintf(b, "**Email:** %s\n", email)
	}
	if phone := normalizePhone(reservations.str("phone")); phone != "" {
		fmt.Fprintf(b, "**Phone:** %s\n", phone)
	}
	if wa := reservations.str("whatsapp"); wa != "" {
		fmt.Fprintf(b, "**WhatsApp:** %s\n", wa)
	}
	if ops := strings.Join(strings.Fields(contacts.sub("operations").str("contact")), " "); ops != "" {
		fmt.Fprintf(b, "**Operations Contact:** %s\n", ops)
	}
	if commercial := contacts.str("commercial"); commercial != "" {
		fmt.Fprintf(b, "**Commercial Contact:** %s\n", commercial)
	}
	if contacts.str("whatsappGroup") != "" {
		b.WriteString("**WhatsApp Group:** Available\n")
	}
}

func writeFinancialInfo(b *strings.Builder, financial payload) {
	billing := financial.sub("billing")
	banking := financial.sub("banking")
	b.WriteString("\n## Financial Info\n")
	if cur := financial.sub("currencyInfo").str("sellCurrency"); cur != "" {
		fmt.Fprintf(b, "**Currency:** %s\n", cur)
	}
	billingType := billing.str("baseInvoiceType")
	if billingType == "" {
		billingType = billing.str("baseInvoiceType2")
	}
	if billingType != "" {
		fmt.Fprintf(b, "**Billing Type:** %s\n", billingType)
	}
	if rt := billing.str("rateType"); rt != "" {
		fmt.Fprintf(b, "**Rate Type:** %s\n", rt)
	}
	if bank := banking.str("bank"); bank != "" {
		fmt.Fprintf(b, "**Bank:** %s\n", bank)
	}
	if banking.str("account") != "" {
		if holder := banking.str("accountHolderName"); holder != "" {
			fmt.Fprintf(b, "**Account Holder:** %s\n", holder)
		}
		if clabe := banking.str("clabe"); clabe != "" {
			fmt.Fprintf(b, "**CLABE:** %s\n", clabe)
		}
	}
}

func writeClassification(b *strings.Builder, full, details payload) {
	supplier := full.sub("supplierInfo")
	b.WriteString("\n## Provider Classification\n")
	if impact := full.sub("metadata").str("impactGroup"); impact != "" {
		fmt.Fprintf(b, "**Impact Category:** %s\n", impact)
	}
	if group := supplier.str("group"); group != "" {
		fmt.Fprintf(b, "**Supplier Group:** %s\n", group)
	}
	if potential := supplier.str("potentialSupplier"); potential != "" {
		fmt.Fprintf(b, "**Provider Status:** %s\n", potential)
	}
	if st := details.str("serviceType"); st != "" {
		fmt.Fprintf(b, "**Service Type:** %s\n", st)
	}
	if complete, ok := supplier["isComplete"].(bool); ok {
		fmt.Fprintf(b, "**Provider Complete:** %s\n", yesNo(complete))
	}
}

func writeFacilities(b *strings.Builder, details, facilities payload) {
	b.WriteString("\n## Facilities & Amenities\n")
	amenities := facilities.str("amenities")
	if amenities == "" {
		amenities = details.str("amenities")
	}
	if amenities != "" {
		b.WriteString("**Available Amenities:**\n")
		for _, a := range strings.Split(amenities, ",") {
			if a = strings.TrimSpace(a); a != "" {
				fmt.Fprintf(b, "• %s\n", a)
			}
		}
	}
	flags := []struct{ key, label string }{
		{"parking", "Parking available"},
		{"wifi", "WiFi available"},
		{"pool", "Swimming pool"},
		{"gym", "Gym/Fitness center"},
		{"spa", "Spa services"},
		{"restaurant", "Restaurant"},
		{"bar", "Bar"},
		{"roomService", "Room service"},
		{"airConditioning", "Air conditioning"},
	}
	var items []string
	for _, f := range flags {
		if facilities.boolVal(f.key) {
			items = append(items, f.label)
		}
	}
	if len(items) > 0 {
		b.WriteString("\n**Additional Facilities:**\n")
		for _, item := range items {
			fmt.Fprintf(b, "• %s\n", item)
		}
	}
}

func lodgingClassName(code string) string {
	switch code {
	case "SUP":
		return "Superior"
	case "STD":
		return "Standard"
	case "DEL":
		return "Deluxe"
	case "LUX":
		return "Luxury"
	default:
		return code
	}
}

func transportClassName(code string) string {
	switch code {
	case "PRI":
		return "Private"
	case "SHA":
		return "Shared"
	case "COM":
		return "Comfort"
	case "DEL":
		return "Deluxe"
	default:
		return ""
	}
}
