package catalog

// builtinRules returns the compiled-in rule set. These cover the
// datatypes nearly every tabular source carries and work without any
// rule directory configured. Each can be toggled off from the config
// file by id.
//
// File-loaded rules can shadow or extend these freely — built-ins
// load first, so an equal-priority file rule loses tie-breaks to a
// built-in.
func builtinRules() []*Rule {
	return []*Rule{
		// --- Field-name rules ---
		{
			ID:      "field_email",
			Key:     "email",
			Name:    "Email address",
			Type:    FieldRule,
			Match:   MatchText,
			Body:    "email,e_mail,e-mail,email_address,mail",
			Context: "pii",
			Lang:    LangCommon,
			IsPII:   true,
			Builtin: true,
		},
		{
			ID:      "field_phone",
			Key:     "phone",
			Name:    "Phone number",
			Type:    FieldRule,
			Match:   MatchText,
			Body:    "phone,phone_number,telephone,tel,mobile,mobile_phone,cellphone",
			Context: "pii",
			Lang:    LangCommon,
			IsPII:   true,
			Builtin: true,
		},
		{
			ID:      "field_person_name",
			Key:     "person_name",
			Name:    "Person name",
			Type:    FieldRule,
			Match:   MatchText,
			Body:    "firstname,first_name,lastname,last_name,middlename,middle_name,surname,fullname,full_name",
			Context: "pii",
			Lang:    LangCommon,
			IsPII:   true,
			Builtin: true,
		},
		{
			ID:      "field_postal_code",
			Key:     "postal_code",
			Name:    "Postal code",
			Type:    FieldRule,
			Match:   MatchText,
			Body:    "zip,zipcode,zip_code,postcode,postal_code,postalcode",
			Context: "geo",
			Lang:    LangCommon,
			Builtin: true,
		},

		// --- Data rules: format predicates ---
		{
			ID:      "data_uuid",
			Key:     "uuid",
			Name:    "UUID",
			Type:    DataRule,
			Match:   MatchFunc,
			Body:    "std.is_uuid",
			MinLen:  36,
			MaxLen:  36,
			Context: "identifiers",
			Lang:    LangCommon,
			Builtin: true,
		},
		{
			ID:      "data_email",
			Key:     "email",
			Name:    "Email address",
			Type:    DataRule,
			Match:   MatchFunc,
			Body:    "net.is_email",
			MinLen:  3,
			Context: "pii",
			Lang:    LangCommon,
			IsPII:   true,
			Builtin: true,
		},
		{
			ID:      "data_url",
			Key:     "url",
			Name:    "URL",
			Type:    DataRule,
			Match:   MatchFunc,
			Body:    "net.is_url",
			MinLen:  10,
			Context: "net",
			Lang:    LangCommon,
			Builtin: true,
		},
		{
			ID:      "data_ip",
			Key:     "ip",
			Name:    "IP address",
			Type:    DataRule,
			Match:   MatchFunc,
			Body:    "net.is_ip",
			MinLen:  2,
			MaxLen:  45,
			Context: "net",
			Lang:    LangCommon,
			Builtin: true,
		},
		{
			ID:        "data_credit_card",
			Key:       "credit_card",
			Name:      "Payment card number",
			Type:      DataRule,
			Match:     MatchFunc,
			Body:      "num.is_luhn",
			MinLen:    12,
			MaxLen:    19,
			Context:   "pii",
			Lang:      LangCommon,
			IsPII:     true,
			Imprecise: true, // Luhn alone passes many plain id sequences.
			Builtin:   true,
		},

		// --- Data rules: grammars ---
		{
			ID:      "data_year",
			Key:     "year",
			Name:    "Calendar year",
			Type:    DataRule,
			Match:   MatchPPR,
			Body:    "(Literal('1') + Word(nums, exact=3)) ^ (Literal('2') + Word('01', exact=1) + Word(nums, exact=2))",
			MinLen:  4,
			MaxLen:  4,
			Context: "datetime",
			Lang:    LangCommon,
			// Scope to plausible columns — bare 4-digit numbers are
			// everywhere.
			FieldRule:      "year,yr,birth_year,death_year,founded,established",
			FieldRuleMatch: MatchText,
			Builtin:        true,
		},

		// --- Data rules: token dictionaries ---
		{
			ID:        "data_country_alpha2",
			Key:       "countrycode_alpha2",
			Name:      "ISO 3166-1 alpha-2 country code",
			Type:      DataRule,
			Match:     MatchText,
			Body:      isoAlpha2Codes,
			MinLen:    2,
			MaxLen:    2,
			Context:   "geo",
			Lang:      LangCommon,
			Imprecise: true, // Two-letter tokens collide with many abbreviations.
			Builtin:   true,
		},
		{
			ID:      "data_bool_word",
			Key:     "boolean",
			Name:    "Boolean token",
			Type:    DataRule,
			Match:   MatchText,
			Body:    "true,false,yes,no,y,n,t,f",
			MinLen:  1,
			MaxLen:  5,
			Context: "std",
			Lang:    LangCommon,
			Builtin: true,
		},

		// --- Data rules: coordinates, gated to plausible columns ---
		{
			ID:             "data_latitude",
			Key:            "latitude",
			Name:           "Latitude",
			Type:           DataRule,
			Match:          MatchFunc,
			Body:           "geo.is_latitude",
			Context:        "geo",
			Lang:           LangCommon,
			FieldRule:      "lat,latitude",
			FieldRuleMatch: MatchText,
			Builtin:        true,
		},
		{
			ID:             "data_longitude",
			Key:            "longitude",
			Name:           "Longitude",
			Type:           DataRule,
			Match:          MatchFunc,
			Body:           "geo.is_longitude",
			Context:        "geo",
			Lang:           LangCommon,
			FieldRule:      "lon,lng,long,longitude",
			FieldRuleMatch: MatchText,
			Builtin:        true,
		},
	}
}

// isoAlpha2Codes is the ISO 3166-1 alpha-2 assignment list.
const isoAlpha2Codes = "ad,ae,af,ag,ai,al,am,ao,aq,ar,as,at,au,aw,ax,az," +
	"ba,bb,bd,be,bf,bg,bh,bi,bj,bl,bm,bn,bo,bq,br,bs,bt,bv,bw,by,bz," +
	"ca,cc,cd,cf,cg,ch,ci,ck,cl,cm,cn,co,cr,cu,cv,cw,cx,cy,cz," +
	"de,dj,dk,dm,do,dz,ec,ee,eg,eh,er,es,et,fi,fj,fk,fm,fo,fr," +
	"ga,gb,gd,ge,gf,gg,gh,gi,gl,gm,gn,gp,gq,gr,gs,gt,gu,gw,gy," +
	"hk,hm,hn,hr,ht,hu,id,ie,il,im,in,io,iq,ir,is,it,je,jm,jo,jp," +
	"ke,kg,kh,ki,km,kn,kp,kr,kw,ky,kz,la,lb,lc,li,lk,lr,ls,lt,lu,lv,ly," +
	"ma,mc,md,me,mf,mg,mh,mk,ml,mm,mn,mo,mp,mq,mr,ms,mt,mu,mv,mw,mx,my,mz," +
	"na,nc,ne,nf,ng,ni,nl,no,np,nr,nu,nz,om,pa,pe,pf,pg,ph,pk,pl,pm,pn,pr,ps,pt,pw,py," +
	"qa,re,ro,rs,ru,rw,sa,sb,sc,sd,se,sg,sh,si,sj,sk,sl,sm,sn,so,sr,ss,st,sv,sx,sy,sz," +
	"tc,td,tf,tg,th,tj,tk,tl,tm,tn,to,tr,tt,tv,tw,tz,ua,ug,um,us,uy,uz," +
	"va,vc,ve,vg,vi,vn,vu,wf,ws,ye,yt,za,zm,zw"

// defaultBuiltinToggles is the default enable state for each built-in
// rule. Imprecise ones still load enabled — the scan-time imprecise
// filter governs whether they fire.
func defaultBuiltinToggles() map[string]bool {
	return map[string]bool{
		"field_email":         true,
		"field_phone":         true,
		"field_person_name":   true,
		"field_postal_code":   true,
		"data_uuid":           true,
		"data_email":          true,
		"data_url":            true,
		"data_ip":             true,
		"data_credit_card":    true,
		"data_year":           true,
		"data_country_alpha2": true,
		"data_bool_word":      true,
		"data_latitude":       true,
		"data_longitude":      true,
	}
}
