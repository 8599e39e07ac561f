package gateway

// websiteContext is the fixed knowledge corpus the free-form assistant is
// allowed to answer from. Answers outside this corpus are redirected to the
// bakery's direct contact channels.
const websiteContext = `
**## General Information ##**
- **Business Name:** TheCakeBoxLady
- **Tagline:** Gifting Happiness
- **Location:** Siliguri, West Bengal, India (Home-based bakery)
- **Contact:** WhatsApp: +91 7099032828, Email: tcblweb@gmail.com. You can find our contact information on the 'Contact Us' page of our website.
- **Response Time:** Please allow up to 4 hours for a reply on WhatsApp/Email.
- **Working Hours:** 10:00 AM to 8:00 PM
- **Order Type:** Pre-Orders Only
- **Website:** https://www.thecakeboxlady.in/category/all-products. This is where you can explore designs, select preferences, and proceed to checkout for custom cakes.
- **Gallery/Examples:** See examples of our custom cakes in the 'Gallery' section of the website, or on Instagram: https://instagram.com/thecakeboxlady

**## Products ##**
- **Specialties:** Customized cakes, cupcakes, brownies, cheesecakes, gift hampers.
- **Cake Flavors:** Chocolate, Butterscotch and many others; the full flavor list per cake type is on the website. Specific flavor requests can go through WhatsApp or email.
- **Cake Types:** Standard customized cakes and Bento (lunchbox) cakes. Every cake is made fresh to order; there are no ready-made cakes.
- **Cupcakes:** Sold in boxes of 6.
- **Cheesecakes:** New York Baked Cheesecake is a featured item.
- **Brownies:** Fudgy brownies.
- **Dietary Options:** Both egg and eggless cakes are available.
- **Decorations:** Both fresh cream and fondant, depending on the design and preference.

**## Ordering ##**
- **How to Order:** Order directly through the website; for urgent requests or highly complex designs, contact WhatsApp (+91 7099032828).
- **Lead Time:** Custom cakes should be ordered at least 2-3 days in advance. Same-day delivery is generally not possible; 24-48 hours notice is required.
- **Pricing:** Starting prices vary by size, design complexity and ingredients; base prices per category are on the website. For a precise quote, design the cake online or contact WhatsApp.
- **Design Specifics:** Share design ideas, themes or reference images when ordering on the website, or discuss them on WhatsApp.
- **Personalized Message:** Yes; there is a dedicated field during the ordering process.

**## Delivery ##**
- **Service Area:** Delivery all over Siliguri ONLY.
- **Cost:** Delivery is a paid extra; charges vary by location and are calculated during website checkout.

**## Payment & Pricing Details ##**
- **Payment Methods:** Online payment at order placement. No Cash on Delivery.
- **Hidden Charges:** None; the total including delivery is shown before payment.

**## Post-Order & Support ##**
- **Order Changes:** Contact +91 7099032828 or tcblweb@gmail.com as soon as possible; changes depend on the preparation stage and may incur extra cost.
- **Refund Policy:** Depends on cancellation timing; see the Terms and Conditions on the website.
- **Corporate/Bulk Orders:** Supported; contact directly for a custom quote.
- **Issue with Order:** Contact customer support immediately with order details and photos.

**## Cake Sizing in Pounds ##**
- **Smallest Cake Size:** Around 2 to 4 pounds.
- **Cake for 10-12 people:** Approximately 2.5 to 3 pounds.
- **Cake for 5-6 people:** About 2 to 3 pounds.
- **5 Pounds or Larger:** Available for bigger celebrations, including weddings.

**## Pet Cakes ##**
- Custom cakes for dogs and cats with pet-safe ingredients (peanut butter, pumpkin, applesauce, whole wheat flour; no chocolate or xylitol). Sizes roughly 1 to 2 pounds. Consult a veterinarian for specific allergies.

**## Kids' Cakes ##**
- Themed cakes (superheroes, princesses, Barbie, Frozen, construction, hot air balloons, teddy bears) in egg and eggless variants, fully customizable with the child's name and age. For a party of about 15 children, 4 to 5 pounds is recommended.

**## Other ##**
- **Baking Workshops:** For details, send the message "BAKING WORKSHOP" on WhatsApp.
`

// InitialGreeting is the first assistant turn of every fresh session.
const InitialGreeting = "👋 Hello there! I'm your friendly AI assistant for TheCakeBoxLady. I'm excited to help you with cakes, orders, and any questions you have! What's on your mind today?"
