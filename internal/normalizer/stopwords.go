package normalizer

// stopWords is the common English stop-word list.
var stopWords = []string{
	"i", "me", "my", "myself", "we", "our", "ours", "ourselves", "you", "your",
	"yours", "yourself", "yourselves", "he", "him", "his", "himself", "she",
	"her", "hers", "herself", "it", "its", "itself", "they", "them", "their",
	"theirs", "themselves", "what", "which", "who", "whom", "this", "that",
	"these", "those", "am", "is", "are", "was", "were", "be", "been", "being",
	"have", "has", "had", "having", "do", "does", "did", "doing", "a", "an",
	"the", "and", "but", "if", "or", "because", "as", "until", "while", "of",
	"at", "by", "for", "with", "about", "against", "between", "into",
	"through", "during", "before", "after", "above", "below", "to", "from",
	"up", "down", "in", "out", "on", "off", "over", "under", "again",
	"further", "then", "once", "here", "there", "when", "where", "why", "how",
	"all", "any", "both", "each", "few", "more", "most", "other", "some",
	"such", "no", "nor", "not", "only", "own", "same", "so", "than", "too",
	"very", "s", "t", "can", "will", "just", "don", "should", "now", "d",
	"ll", "m", "o", "re", "ve", "y", "ain", "aren", "couldn", "didn", "doesn",
	"hadn", "hasn", "haven", "isn", "ma", "mightn", "mustn", "needn", "shan",
	"shouldn", "wasn", "weren", "won", "wouldn",
}

// closedClass lists function words that carry no topical meaning:
// determiners, pronouns, prepositions, conjunctions, modals, wh-words,
// interjections and cardinal number words.
var closedClass = []string{
	// determiners
	"another", "either", "every", "neither", "half", "whatever", "whichever",
	// pronouns
	"anybody", "anyone", "anything", "everybody", "everyone", "everything",
	"nobody", "none", "nothing", "somebody", "someone", "something", "thee",
	"thou", "thy", "thine", "ye", "us", "whoever", "whomever",
	// prepositions and particles
	"across", "along", "amid", "among", "amongst", "around", "behind",
	"beneath", "beside", "besides", "beyond", "despite", "except", "inside",
	"near", "onto", "outside", "past", "since", "throughout", "till",
	"toward", "towards", "underneath", "unto", "upon", "via", "within",
	"without", "per",
	// conjunctions
	"although", "though", "unless", "whereas", "whether", "yet", "lest",
	// modals
	"could", "may", "might", "must", "shall", "would", "ought",
	// wh-words
	"whose", "whenever", "wherever", "however", "whereby", "wherein",
	// interjections
	"oh", "ah", "alas", "hey", "uh", "um", "wow", "hello",
	// cardinals
	"zero", "one", "two", "three", "four", "five", "six", "seven", "eight",
	"nine", "ten", "eleven", "twelve", "twenty", "thirty", "hundred",
	"thousand", "million", "billion",
}
