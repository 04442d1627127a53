package importer

// Volume data files, relative to the source base URL.
const (
	oldTestamentFile  = "old-testament.json"
	newTestamentFile  = "new-testament.json"
	bookOfMormonFile  = "book-of-mormon.json"
	doctrineFile      = "doctrine-and-covenants.json"
	pearlOfGreatPrice = "pearl-of-great-price.json"
)

// DefaultSourceURL hosts the volume data files.
const DefaultSourceURL = "https://raw.githubusercontent.com/allancoding/scriptures/main/"

type bookInfo struct {
	abbrev string // citation form, e.g. "1 Ne."
	name   string // name inside the volume file
	file   string
}

// slugs maps the book segment of a scripture URL to the book.
var slugs = map[string]bookInfo{
	"gen":   {"Gen.", "Genesis", oldTestamentFile},
	"ex":    {"Ex.", "Exodus", oldTestamentFile},
	"lev":   {"Lev.", "Leviticus", oldTestamentFile},
	"num":   {"Num.", "Numbers", oldTestamentFile},
	"deut":  {"Deut.", "Deuteronomy", oldTestamentFile},
	"josh":  {"Josh.", "Joshua", oldTestamentFile},
	"judg":  {"Judg.", "Judges", oldTestamentFile},
	"ruth":  {"Ruth", "Ruth", oldTestamentFile},
	"1-sam": {"1 Sam.", "1 Samuel", oldTestamentFile},
	"2-sam": {"2 Sam.", "2 Samuel", oldTestamentFile},
	"1-kgs": {"1 Kgs.", "1 Kings", oldTestamentFile},
	"2-kgs": {"2 Kgs.", "2 Kings", oldTestamentFile},
	"1-chr": {"1 Chr.", "1 Chronicles", oldTestamentFile},
	"2-chr": {"2 Chr.", "2 Chronicles", oldTestamentFile},
	"ezra":  {"Ezra", "Ezra", oldTestamentFile},
	"neh":   {"Neh.", "Nehemiah", oldTestamentFile},
	"esth":  {"Esth.", "Esther", oldTestamentFile},
	"job":   {"Job", "Job", oldTestamentFile},
	"ps":    {"Ps.", "Psalms", oldTestamentFile},
	"prov":  {"Prov.", "Proverbs", oldTestamentFile},
	"eccl":  {"Eccl.", "Ecclesiastes", oldTestamentFile},
	"song":  {"Song.", "Song of Solomon", oldTestamentFile},
	"isa":   {"Isa.", "Isaiah", oldTestamentFile},
	"jer":   {"Jer.", "Jeremiah", oldTestamentFile},
	"lam":   {"Lam.", "Lamentations", oldTestamentFile},
	"ezek":  {"Ezek.", "Ezekiel", oldTestamentFile},
	"dan":   {"Dan.", "Daniel", oldTestamentFile},
	"hosea": {"Hosea", "Hosea", oldTestamentFile},
	"joel":  {"Joel", "Joel", oldTestamentFile},
	"amos":  {"Amos", "Amos", oldTestamentFile},
	"obad":  {"Obad.", "Obadiah", oldTestamentFile},
	"jonah": {"Jonah", "Jonah", oldTestamentFile},
	"micah": {"Micah", "Micah", oldTestamentFile},
	"nahum": {"Nahum", "Nahum", oldTestamentFile},
	"hab":   {"Hab.", "Habakkuk", oldTestamentFile},
	"zeph":  {"Zeph.", "Zephaniah", oldTestamentFile},
	"hag":   {"Hag.", "Haggai", oldTestamentFile},
	"zech":  {"Zech.", "Zechariah", oldTestamentFile},
	"mal":   {"Mal.", "Malachi", oldTestamentFile},

	"matt":   {"Matt.", "Matthew", newTestamentFile},
	"mark":   {"Mark", "Mark", newTestamentFile},
	"luke":   {"Luke", "Luke", newTestamentFile},
	"john":   {"John", "John", newTestamentFile},
	"acts":   {"Acts", "Acts", newTestamentFile},
	"rom":    {"Rom.", "Romans", newTestamentFile},
	"1-cor":  {"1 Cor.", "1 Corinthians", newTestamentFile},
	"2-cor":  {"2 Cor.", "2 Corinthians", newTestamentFile},
	"gal":    {"Gal.", "Galatians", newTestamentFile},
	"eph":    {"Eph.", "Ephesians", newTestamentFile},
	"philip": {"Philip.", "Philippians", newTestamentFile},
	"col":    {"Col.", "Colossians", newTestamentFile},
	"1-thes": {"1 Thes.", "1 Thessalonians", newTestamentFile},
	"2-thes": {"2 Thes.", "2 Thessalonians", newTestamentFile},
	"1-tim":  {"1 Tim.", "1 Timothy", newTestamentFile},
	"2-tim":  {"2 Tim.", "2 Timothy", newTestamentFile},
	"titus":  {"Titus", "Titus", newTestamentFile},
	"philem": {"Philem.", "Philemon", newTestamentFile},
	"heb":    {"Heb.", "Hebrews", newTestamentFile},
	"james":  {"James", "James", newTestamentFile},
	"1-pet":  {"1 Pet.", "1 Peter", newTestamentFile},
	"2-pet":  {"2 Pet.", "2 Peter", newTestamentFile},
	"1-jn":   {"1 Jn.", "1 John", newTestamentFile},
	"2-jn":   {"2 Jn.", "2 John", newTestamentFile},
	"3-jn":   {"3 Jn.", "3 John", newTestamentFile},
	"jude":   {"Jude", "Jude", newTestamentFile},
	"rev":    {"Rev.", "Revelation", newTestamentFile},

	"1-ne":   {"1 Ne.", "1 Nephi", bookOfMormonFile},
	"2-ne":   {"2 Ne.", "2 Nephi", bookOfMormonFile},
	"jacob":  {"Jacob", "Jacob", bookOfMormonFile},
	"enos":   {"Enos", "Enos", bookOfMormonFile},
	"jarom":  {"Jarom", "Jarom", bookOfMormonFile},
	"omni":   {"Omni", "Omni", bookOfMormonFile},
	"w-of-m": {"W of M", "Words of Mormon", bookOfMormonFile},
	"mosiah": {"Mosiah", "Mosiah", bookOfMormonFile},
	"alma":   {"Alma", "Alma", bookOfMormonFile},
	"hel":    {"Hel.", "Helaman", bookOfMormonFile},
	"3-ne":   {"3 Ne.", "3 Nephi", bookOfMormonFile},
	"4-ne":   {"4 Ne.", "4 Nephi", bookOfMormonFile},
	"morm":   {"Morm.", "Mormon", bookOfMormonFile},
	"ether":  {"Ether", "Ether", bookOfMormonFile},
	"moro":   {"Moro.", "Moroni", bookOfMormonFile},

	"dc": {"D&C", "Doctrine and Covenants", doctrineFile},

	"moses":  {"Moses", "Moses", pearlOfGreatPrice},
	"abr":    {"Abr.", "Abraham", pearlOfGreatPrice},
	"js-m":   {"JS—M", "Joseph Smith—Matthew", pearlOfGreatPrice},
	"js-h":   {"JS—H", "Joseph Smith—History", pearlOfGreatPrice},
	"a-of-f": {"A of F", "Articles of Faith", pearlOfGreatPrice},
}
